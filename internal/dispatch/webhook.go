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

package dispatch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tryghost/activitypub/internal/util"
)

const webhookSkew = 5 * time.Minute

// ghostPostPublishedPayload is Ghost's post.published webhook body,
// trimmed to the fields PostService.CreatePublishedArticle needs
// (spec.md §4.4's "HTTP POST from Ghost core's post.published webhook").
type ghostPostPublishedPayload struct {
	Post struct {
		Current struct {
			Title        string `json:"title"`
			HTML         string `json:"html"`
			Excerpt      string `json:"excerpt"`
			URL          string `json:"url"`
			FeatureImage string `json:"feature_image"`
			Visibility   string `json:"visibility"`
		} `json:"current"`
	} `json:"post"`
}

// handlePostPublishedWebhook serves POST /webhooks/post/published
// (spec.md §4.4): verify the x-ghost-signature HMAC against the
// originating site's webhook_secret (or skip, for a trusted Ghost Pro
// source IP), then create the published article.
func (rt *Router) handlePostPublishedWebhook(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	site, err := rt.sites.GetSiteByHost(c, r.Host)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown site")
		return
	}

	if !rt.trustedGhostProSource(r) {
		if err := verifyGhostSignature(r.Header.Get("x-ghost-signature"), site.WebhookSecret, body); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	var payload ghostPostPublishedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	author, err := rt.accounts.GetAccountByID(c, site.DefaultAccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "resolving site default account")
		return
	}

	post := payload.Post.Current
	public := post.Visibility == "public"
	_, err = rt.posts.CreatePublishedArticle(c, author, post.Title, post.Excerpt, post.HTML, post.URL, post.FeatureImage, public)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

// trustedGhostProSource reports whether r's remote address is on the
// Ghost Pro trusted network this instance is told to skip HMAC
// verification for (spec.md §6's GHOST_PRO_IP_ADDRESSES).
func (rt *Router) trustedGhostProSource(r *http.Request) bool {
	if len(rt.cfg.ServerConfig.GhostProIPAddresses) == 0 {
		return false
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	for _, trusted := range rt.cfg.ServerConfig.GhostProIPAddresses {
		if trusted == host {
			return true
		}
	}
	return false
}

// verifyGhostSignature checks header, the "sha256=<hex>, t=<unix ms>"
// value Ghost core signs a webhook body with: HMAC-SHA256 of body
// concatenated with the timestamp, keyed by secret, rejecting a
// signature whose timestamp has drifted more than webhookSkew.
func verifyGhostSignature(header, secret string, body []byte) error {
	if header == "" {
		return errInvalidSignature("missing x-ghost-signature header")
	}
	var sig, tsStr string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "sha256":
			sig = kv[1]
		case "t":
			tsStr = kv[1]
		}
	}
	if sig == "" || tsStr == "" {
		return errInvalidSignature("malformed x-ghost-signature header")
	}

	tsMillis, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return errInvalidSignature("malformed timestamp")
	}
	ts := time.UnixMilli(tsMillis)
	if d := time.Since(ts); d > webhookSkew || d < -webhookSkew {
		return errInvalidSignature("signature timestamp outside allowed skew")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(tsStr))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return errInvalidSignature("signature mismatch")
	}
	return nil
}

type errInvalidSignature string

func (e errInvalidSignature) Error() string { return string(e) }
