package filestore

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core/lab"
)

type dummyStore struct {
	baseURL string
	ttl     time.Duration
}

var _ lab.FileStore = (*dummyStore)(nil)

// NewDummyStore builds fake signed URLs under baseURL. Nothing is stored.
func NewDummyStore(baseURL string, ttl time.Duration) lab.FileStore {
	return &dummyStore{baseURL: strings.TrimSuffix(baseURL, "/"), ttl: ttl}
}

func (st *dummyStore) sign(path, method string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", errors.New("filestore: empty path")
	}
	q := url.Values{}
	q.Set("method", method)
	q.Set("expires", time.Now().Add(st.ttl).UTC().Format(time.RFC3339))
	return st.baseURL + "/" + path + "?" + q.Encode(), nil
}

func (st *dummyStore) SignedGetURL(_ context.Context, path string) (string, error) {
	return st.sign(path, "GET")
}

func (st *dummyStore) SignedPutURL(_ context.Context, path, _ string) (string, error) {
	return st.sign(path, "PUT")
}
