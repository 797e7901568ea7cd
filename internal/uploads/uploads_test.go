package uploads

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredName_KeepsExtension(t *testing.T) {
	a := StoredName("jd.pdf")
	b := StoredName("jd.pdf")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.Len(t, a, 36+len(".pdf"))
	assert.Len(t, StoredName("noext"), 36)
}

func TestDisk_StageAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	d, err := NewDisk(dir)
	require.NoError(t, err)

	name, err := d.Stage(context.Background(), "role.docx", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, ".docx", filepath.Ext(name))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, d.Remove(context.Background(), name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// Second remove is a no-op.
	assert.NoError(t, d.Remove(context.Background(), name))
}

func TestDisk_RemoveRejectsPaths(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, d.Remove(context.Background(), "../etc/passwd"))
	assert.Error(t, d.Remove(context.Background(), ""))
}

func TestS3_StageAndRemove(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
		paths   []string
		body    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		if r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := NewS3(context.Background(), S3Config{
		Bucket:    "jds",
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	name, err := s.Stage(context.Background(), "jd.txt", strings.NewReader("Go developer"))
	require.NoError(t, err)
	assert.Equal(t, ".txt", filepath.Ext(name))
	require.NoError(t, s.Remove(context.Background(), name))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
	assert.Equal(t, "/jds/"+name, paths[0])
	assert.Contains(t, body, "Go developer")
}
