// Package reference parses secret references of the form
//
//	{secret://<provider>/<name>[.<path>][?<properties>]}
//
// where path is a gjson path into a JSON secret value.
package reference

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrReferenceInvalid = errors.New("invalid reference")

const (
	refOpen  = "{secret://"
	refClose = "}"
)

type Reference struct {
	Reference  string
	Provider   string
	Name       string
	Path       string
	Properties map[string]string
}

func (r *Reference) String() string {
	return r.Reference
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %q", ErrReferenceInvalid, reason)
}

func Parse(reference string) (*Reference, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimPrefix(reference, "{"), refClose))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReferenceInvalid, err)
	}
	switch {
	case u.Scheme != "secret":
		return nil, invalid("invalid reference scheme")
	case u.Host == "":
		return nil, invalid("invalid reference provider")
	case u.Path == "" || u.Path == "/":
		return nil, invalid("invalid reference name")
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, invalid("invalid reference properties")
	}

	ref := &Reference{
		Reference:  reference,
		Provider:   u.Host,
		Properties: make(map[string]string, len(query)),
	}
	ref.Name, ref.Path, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), ".")
	for k := range query {
		ref.Properties[k] = query.Get(k)
	}
	return ref, nil
}

func IsReference(s string) bool {
	return strings.HasPrefix(s, refOpen) && strings.HasSuffix(s, refClose)
}
