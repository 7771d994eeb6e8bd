package cmd

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	_, err = root.ExecuteC()
	return buf.String(), err
}

const contract = `
features:
  - name: x
    dtype: FLOAT
    ftype: continuous
    range: [0, 1]
targets:
  - name: y
    dtype: FLOAT
    ftype: continuous
    range: [0, 1]
`

func writeContract(t *testing.T) string {
	filename := filepath.Join(t.TempDir(), "contract.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(contract), 0o644))
	return filename
}

func splitURL(t *testing.T, rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	return host, port
}

func TestCMD(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "")
	assert.Nil(t, err)
	assert.NotNil(t, output)
}

func TestVersion(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "version")
	assert.Nil(t, err)
	assert.Contains(t, output, "Seldon Core ")
}

func TestMicroserviceArgs(t *testing.T) {
	tests := []struct {
		desc string
		args []string
		err  string
	}{
		{
			desc: "flatbuffers",
			args: []string{"microservice", "MeanClassifier", "FBS"},
			err:  "api type FBS is not supported, use REST or GRPC",
		},
		{
			desc: "unknown api type",
			args: []string{"microservice", "MeanClassifier", "SOAP"},
			err:  "invalid api type: SOAP",
		},
		{
			desc: "invalid persistence",
			args: []string{"microservice", "MeanClassifier", "REST", "--persistence", "2"},
			err:  "invalid persistence: 2",
		},
		{
			desc: "missing arguments",
			args: []string{"microservice", "MeanClassifier"},
			err:  "accepts 2 arg(s), received 1",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			_, err := executeCommand(NewRootCmd(), test.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.err)
		})
	}
}

func TestTesterFlags(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "tester", "contract.json", "localhost", "5000", "--fbs")
	assert.Equal(t, ErrFBSNotSupported, err)

	_, err = executeCommand(NewRootCmd(), "tester", "contract.json", "localhost", "5000", "--endpoint", "route")
	assert.Error(t, err)

	_, err = executeCommand(NewRootCmd(), "tester", "contract.json", "localhost", "5000", "-b", "0")
	assert.EqualError(t, err, "invalid batch size: 0")
}

func TestTester(t *testing.T) {
	var predictions, feedbacks atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("json") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		predictions.Add(1)
		_, _ = w.Write([]byte(`{"data":{"ndarray":[[0.5]]}}`))
	}).Methods("POST")
	r.HandleFunc("/send-feedback", func(w http.ResponseWriter, r *http.Request) {
		feedbacks.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}).Methods("POST")
	server := httptest.NewServer(r)
	defer server.Close()

	host, port := splitURL(t, server.URL)
	output, err := executeCommand(NewRootCmd(), "tester", writeContract(t), host, port,
		"--endpoint", "send-feedback", "-n", "3", "-b", "2", "-p", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "SENDING NEW REQUEST")
	assert.Contains(t, output, "SENDING NEW FEEDBACK")
	assert.Contains(t, output, "3 requests: 3 succeeded, 0 failed")
	assert.Equal(t, int64(3), predictions.Load())
	assert.Equal(t, int64(3), feedbacks.Load())
}

func TestTesterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	host, port := splitURL(t, server.URL)
	_, err := executeCommand(NewRootCmd(), "tester", writeContract(t), host, port, "-n", "2")
	assert.EqualError(t, err, "2 of 2 requests failed")
}

func TestAPITester(t *testing.T) {
	var authorized atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		key, secret, ok := r.BasicAuth()
		if !ok || key != "key" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"t0ken"}`))
	}).Methods("POST")
	r.HandleFunc("/seldon/default/iris/api/v0.1/predictions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer t0ken" {
			authorized.Add(1)
		}
		_, _ = w.Write([]byte(`{"data":{"ndarray":[[0.5]]}}`))
	}).Methods("POST")
	server := httptest.NewServer(r)
	defer server.Close()

	host, port := splitURL(t, server.URL)
	output, err := executeCommand(NewRootCmd(), "api-tester", writeContract(t), host, port,
		"--oauth-key", "key", "--oauth-secret", "secret",
		"--namespace", "default", "--deployment", "iris", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, output, "2 requests: 2 succeeded, 0 failed")
	assert.Equal(t, int64(2), authorized.Load())
}

func TestAPITesterUnresolvedSecret(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "api-tester", writeContract(t), "localhost", "1",
		"--oauth-key", "{secret://vault/seldon/oauth.key}", "--oauth-secret", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve oauth credentials")
}
