package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NetgsmSender implements SMSSender against a Netgsm-compatible HTTP API.
type NetgsmSender struct {
	apiURL   string
	username string
	password string
	header   string // registered sender name
	http     *http.Client
}

// NewNetgsmSender creates an SMS sender.
func NewNetgsmSender(apiURL, username, password, header string) *NetgsmSender {
	return &NetgsmSender{
		apiURL:   apiURL,
		username: username,
		password: password,
		header:   header,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one SMS. Netgsm replies with a numeric status line; codes
// other than 00/01/02 are rejections.
func (n *NetgsmSender) Send(ctx context.Context, phone, body string) error {
	params := url.Values{}
	params.Set("usercode", n.username)
	params.Set("password", n.password)
	params.Set("gsmno", phone)
	params.Set("message", body)
	params.Set("msgheader", n.header)
	params.Set("dil", "TR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return fmt.Errorf("sms response: %w", err)
	}
	code := strings.TrimSpace(string(raw))
	if i := strings.IndexByte(code, ' '); i > 0 {
		code = code[:i]
	}

	switch code {
	case "00", "01", "02":
		return nil
	default:
		return fmt.Errorf("sms gateway rejected message: %s", code)
	}
}
