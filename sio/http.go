/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"

	"github.com/Comcast/ocremote/channel"

	"golang.org/x/net/publicsuffix"
)

// HTTPRoundTripper POSTs each request frame to URL and expects a
// response frame in the reply.  Cookies the server sets are kept and
// sent back, so a server can hold a session.
type HTTPRoundTripper struct {
	URL    string
	Header http.Header
	Client *http.Client
}

// NewHTTPRoundTripper makes an HTTPRoundTripper with its own cookie
// jar.
func NewHTTPRoundTripper(url string) (*HTTPRoundTripper, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &HTTPRoundTripper{
		URL: url,
		Client: &http.Client{
			Jar: jar,
		},
	}, nil
}

// HTTPError reports a reply that wasn't a 200.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Body)
}

func (t *HTTPRoundTripper) RoundTrip(ctx context.Context, r *channel.Request) (*channel.Response, error) {
	js, err := channel.MarshalRequest(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(js))
	if err != nil {
		return nil, err
	}
	for k, vs := range t.Header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	f, err := channel.UnmarshalFrame(body)
	if err != nil {
		return nil, err
	}
	if f.Response == nil {
		return nil, fmt.Errorf("reply to request %d has no response", r.ID)
	}
	return f.Response, nil
}
