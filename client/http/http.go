package http

import (
	"context"
	"fmt"
	"io"
	nhttp "net/http"
	"os"
	"path"
	"sync"
	"time"

	json "github.com/nikkolasg/hexjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/internal/metrics"
)

const defaultClientExec = "unknown"
const defaultHTTTPTimeout = 60 * time.Second

const (
	publicPath  = "api/public"
	distKeyPath = "api/info/distkey"
	groupPath   = "api/info/group"
)

// New creates a new client pointing to the HTTP API of a beacon node. It does
// not contact the node.
func New(l log.Logger, id drand.Identity, transport nhttp.RoundTripper) (*Client, error) {
	if id.Address == "" {
		return nil, fmt.Errorf("empty node address")
	}
	if transport == nil {
		transport = nhttp.DefaultTransport
	}
	if l == nil {
		l = log.DefaultLogger()
	}
	pn, err := os.Executable()
	if err != nil {
		pn = defaultClientExec
	}
	root := id.URL("")
	c := &Client{
		id:     id,
		root:   root,
		client: instrumentClient(root, transport),
		l:      l.Named("http").With("node", id.String()),
		Agent:  fmt.Sprintf("drand-verify-%s/1.0", path.Base(pn)),
		done:   make(chan struct{}),
	}
	return c, nil
}

// ForIdentities provides a shortcut for creating a set of HTTP clients for a
// set of nodes. Nodes whose client cannot be created are logged and skipped.
func ForIdentities(l log.Logger, ids []drand.Identity) []*Client {
	if l == nil {
		l = log.DefaultLogger()
	}
	clients := make([]*Client, 0, len(ids))
	for _, id := range ids {
		c, err := New(l, id, nil)
		if err != nil {
			l.Warnw("skipping node", "node", id.String(), "err", err)
			continue
		}
		clients = append(clients, c)
	}
	return clients
}

// Instruments an HTTP client around a transport
func instrumentClient(url string, transport nhttp.RoundTripper) *nhttp.Client {
	hc := nhttp.Client{}
	hc.Timeout = defaultHTTTPTimeout
	hc.Jar = nhttp.DefaultClient.Jar
	hc.CheckRedirect = nhttp.DefaultClient.CheckRedirect
	urlLabel := prometheus.Labels{"url": url}

	trace := &promhttp.InstrumentTrace{
		DNSStart: func(t float64) {
			metrics.ClientDNSLatencyVec.MustCurryWith(urlLabel).WithLabelValues("dns_start").Observe(t)
		},
		DNSDone: func(t float64) {
			metrics.ClientDNSLatencyVec.MustCurryWith(urlLabel).WithLabelValues("dns_done").Observe(t)
		},
		TLSHandshakeStart: func(t float64) {
			metrics.ClientTLSLatencyVec.MustCurryWith(urlLabel).WithLabelValues("tls_handshake_start").Observe(t)
		},
		TLSHandshakeDone: func(t float64) {
			metrics.ClientTLSLatencyVec.MustCurryWith(urlLabel).WithLabelValues("tls_handshake_done").Observe(t)
		},
	}

	transport = promhttp.InstrumentRoundTripperInFlight(metrics.ClientInFlight.With(urlLabel),
		promhttp.InstrumentRoundTripperCounter(metrics.ClientRequests.MustCurryWith(urlLabel),
			promhttp.InstrumentRoundTripperTrace(trace,
				promhttp.InstrumentRoundTripperDuration(metrics.ClientLatencyVec.MustCurryWith(urlLabel),
					transport))))

	hc.Transport = transport

	return &hc
}

// Client implements drand.Source through http requests to a beacon node.
// It never verifies what it fetches.
type Client struct {
	id     drand.Identity
	root   string
	client *nhttp.Client
	Agent  string
	l      log.Logger
	done   chan struct{}
	once   sync.Once
}

// SetUserAgent sets the user agent used by the client
func (h *Client) SetUserAgent(ua string) {
	h.Agent = ua
}

// Identity returns the node this client talks to.
func (h *Client) Identity() drand.Identity {
	return h.id
}

// String returns the name of this client.
func (h *Client) String() string {
	return fmt.Sprintf("HTTP(%q)", h.root)
}

// MarshalText implements encoding.TextMarshaller interface
func (h *Client) MarshalText() ([]byte, error) {
	return json.Marshal(h.String())
}

type httpResponse struct {
	err error
}

// fetch decodes the JSON document at path into out. The request runs in its
// own goroutine so that Close interrupts callers blocked on a slow node.
func (h *Client) fetch(ctx context.Context, path string, out any) error {
	select {
	case <-h.done:
		return drand.ErrClientClosed
	default:
	}

	url := h.root + path
	resC := make(chan httpResponse, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		req, err := nhttp.NewRequestWithContext(ctx, nhttp.MethodGet, url, nhttp.NoBody)
		if err != nil {
			resC <- httpResponse{fmt.Errorf("creating request: %w", err)}
			return
		}
		req.Header.Set("User-Agent", h.Agent)

		resp, err := h.client.Do(req)
		if err != nil {
			resC <- httpResponse{fmt.Errorf("doing request: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != nhttp.StatusOK {
			// drain a bit of the body to allow connection reuse
			_, _ = io.CopyN(io.Discard, resp.Body, 512)
			resC <- httpResponse{fmt.Errorf("%s answered %d %s", url, resp.StatusCode, nhttp.StatusText(resp.StatusCode))}
			return
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			resC <- httpResponse{fmt.Errorf("decoding response: %w", err)}
			return
		}
		resC <- httpResponse{nil}
	}()

	select {
	case res := <-resC:
		if res.err != nil {
			h.l.Debugw("request failed", "url", url, "err", res.err)
		}
		return res.err
	case <-h.done:
		return drand.ErrClientClosed
	}
}

func (h *Client) beacon(ctx context.Context, path string) (*drand.Beacon, error) {
	b := new(drand.Beacon)
	if err := h.fetch(ctx, path, b); err != nil {
		return nil, err
	}
	if b.Signature == "" {
		return nil, fmt.Errorf("insufficient response - signature is not present")
	}
	return b, nil
}

// Latest returns the most recent beacon served by the node.
func (h *Client) Latest(ctx context.Context) (*drand.Beacon, error) {
	return h.beacon(ctx, publicPath)
}

// Round returns the beacon of the given round.
func (h *Client) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	return h.beacon(ctx, fmt.Sprintf("%s/%d", publicPath, round))
}

// DistKey returns the hex encoded distributed public key of the node's group.
func (h *Client) DistKey(ctx context.Context) (string, error) {
	var dk drand.DistKey
	if err := h.fetch(ctx, distKeyPath, &dk); err != nil {
		return "", err
	}
	if dk.Key == "" {
		return "", drand.ErrNoDistKey
	}
	return dk.Key, nil
}

// Group returns the group description of the node.
func (h *Client) Group(ctx context.Context) (*drand.Group, error) {
	g := new(drand.Group)
	if err := h.fetch(ctx, groupPath, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Close aborts in-flight requests; later calls fail with
// drand.ErrClientClosed. Closing twice is a no-op.
func (h *Client) Close() error {
	h.once.Do(func() {
		close(h.done)
		h.client.CloseIdleConnections()
	})
	return nil
}
