// ghostfed is the ActivityPub federation core for a single-tenant publishing platform.
// Copyright (C) 2026 Ghost Foundation
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package services

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-fed/httpsig"
	"github.com/tidwall/gjson"
	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/util"
)

const activityStreamsContentType = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

// Transport is the signed HTTP client the resolver uses to dereference
// remote objects and the delivery bridge uses to deliver outbound
// activities, grounded on framework/conn/transport.go's Dereference/
// Deliver/BatchDeliver, reimplemented without the teacher's
// delivery-attempt bookkeeping table (this repo tracks delivery
// attempts in the queue, internal/queue, instead).
type Transport struct {
	client      *http.Client
	privKey     crypto.PrivateKey
	pubKeyID    string
	getSigner   httpsig.Signer
	getSignerMu sync.Mutex
	postSigner  httpsig.Signer
	postSignerMu sync.Mutex
	userAgent   string
}

// NewTransport builds a Transport for the given actor's key pair,
// grounded on framework/conn/transport.go's Controller.Get signer
// construction (httpsig.NewSigner over the GET/POST header sets).
func NewTransport(c *config.Config, privKey crypto.PrivateKey, pubKeyID, userAgent string) (*Transport, error) {
	algos := []httpsig.Algorithm{httpsig.RSA_SHA256}
	digestAlg := httpsig.DigestSha256

	getHeaders := []string{httpsig.RequestTarget, "Date", "Host"}
	postHeaders := []string{httpsig.RequestTarget, "Date", "Digest", "Host"}

	getSigner, _, err := httpsig.NewSigner(algos, digestAlg, getHeaders, httpsig.Signature)
	if err != nil {
		return nil, err
	}
	postSigner, _, err := httpsig.NewSigner(algos, digestAlg, postHeaders, httpsig.Signature)
	if err != nil {
		return nil, err
	}

	return &Transport{
		client: &http.Client{
			Timeout: time.Duration(c.ServerConfig.HttpClientTimeoutSeconds) * time.Second,
		},
		privKey:    privKey,
		pubKeyID:   pubKeyID,
		getSigner:  getSigner,
		postSigner: postSigner,
		userAgent:  userAgent,
	}, nil
}

// Dereference issues a signed GET, grounded on
// framework/conn/transport.go's transport.Dereference.
func (t *Transport) Dereference(c util.Context, iri *url.URL) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, iri.String(), nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(c)
	req.Header.Add("Accept", activityStreamsContentType)
	req.Header.Add("Accept-Charset", "utf-8")
	req.Header.Add("Date", t.date())
	req.Header.Add("User-Agent", t.userAgent)

	t.getSignerMu.Lock()
	err = t.getSigner.SignRequest(t.privKey, t.pubKeyID, req, nil)
	t.getSignerMu.Unlock()
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, newErr("Dereference", KindNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newErr("Dereference", KindUpstreamError,
			fmt.Errorf("dereference of %s failed with status %d", iri, resp.StatusCode))
	}
	return ioutil.ReadAll(resp.Body)
}

// Deliver issues a signed POST of body to to, grounded on
// framework/conn/transport.go's transport.Deliver (minus the
// teacher's DB-backed attempt bookkeeping, which this repo's queue
// handles instead).
func (t *Transport) Deliver(c util.Context, body []byte, to *url.URL) error {
	req, err := http.NewRequest(http.MethodPost, to.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req = req.WithContext(c)
	req.Header.Add("Content-Type", activityStreamsContentType)
	req.Header.Add("Accept-Charset", "utf-8")
	req.Header.Add("Date", t.date())
	req.Header.Add("User-Agent", t.userAgent)

	t.postSignerMu.Lock()
	err = t.postSigner.SignRequest(t.privKey, t.pubKeyID, req, body)
	t.postSignerMu.Unlock()
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return newErr("Deliver", KindNetworkFailure, translateNetworkError(err))
	}
	defer resp.Body.Close()

	ok := resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted
	if !ok {
		respBody, _ := ioutil.ReadAll(resp.Body)
		activityID := gjson.GetBytes(body, "id").String()
		return newErr("Deliver", KindUpstreamError,
			fmt.Errorf("Failed to send activity %s to %s (%d %s): %s",
				activityID, to, resp.StatusCode, http.StatusText(resp.StatusCode), respBody))
	}
	return nil
}

// translateNetworkError rewrites a Go stdlib transport error into the
// message shape internal/delivery's error classifier (spec.md §4.8)
// matches, the way the system this delivery bridge is modeled on
// reports DNS and certificate failures.
func translateNetworkError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return fmt.Errorf("getaddrinfo ENOTFOUND %s", dnsErr.Name)
		}
		return fmt.Errorf("getaddrinfo EAI_AGAIN %s", dnsErr.Name)
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return fmt.Errorf("Hostname/IP does not match certificate's altnames: %v", err)
	}
	return err
}

// BatchDeliver fans Deliver out across recipients concurrently,
// grounded on framework/conn/transport.go's transport.BatchDeliver,
// fixing the teacher's unseeded sync.WaitGroup (a nil *sync.WaitGroup
// there would panic on Add; this allocates one).
func (t *Transport) BatchDeliver(c util.Context, body []byte, recipients []*url.URL) {
	var wg sync.WaitGroup
	for i, r := range recipients {
		wg.Add(1)
		go func(i int, r *url.URL) {
			defer wg.Done()
			if err := t.Deliver(c, body, r); err != nil {
				util.ErrorLogger.Errorf("BatchDeliver (%d of %d): %s", i, len(recipients), err)
			}
		}(i, r)
	}
	wg.Wait()
}

func (t *Transport) date() string {
	return fmt.Sprintf("%s GMT", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05"))
}
