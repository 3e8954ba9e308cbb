// Copyright 2017-2020, Square, Inc.

// Package test provides helper functions and fixtures for tests.
package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"runtime"
)

var (
	SpecPath string // Where test DAG spec files are stored.
)

func init() {
	_, filename, _, _ := runtime.Caller(0)
	SpecPath, _ = filepath.Abs(path.Join(filepath.Dir(filename), "specs/"))
}

// MakeHTTPRequest is a helper function for making an http request. The response
// body of the http request is unmarshalled into the struct pointed to by the
// respStruct argument (if it's not nil). The status code of the response and
// the response headers are returned.
func MakeHTTPRequest(httpVerb, url string, payload []byte, contentType string, respStruct interface{}) (int, http.Header, error) {
	var statusCode int
	req, err := http.NewRequest(httpVerb, url, bytes.NewReader(payload))
	if err != nil {
		return statusCode, http.Header{}, err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	res, err := (http.DefaultClient).Do(req)
	if err != nil {
		return statusCode, http.Header{}, err
	}
	defer res.Body.Close()

	if respStruct != nil {
		decoder := json.NewDecoder(res.Body)
		err = decoder.Decode(respStruct)
		if err != nil {
			return res.StatusCode, res.Header, fmt.Errorf("error decoding response body: %s", err)
		}
	}

	return res.StatusCode, res.Header, nil
}

func Dump(v interface{}) {
	bytes, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(bytes))
}
