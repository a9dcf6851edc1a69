package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/playok/metricd/internal/metric"
)

// Instance attributes can be queried at this URL from within a GCE instance.
const gcpMetadataURL = "http://metadata.google.internal/computeMetadata/v1/instance/attributes/?recursive=true"

// extraFieldsKey is the attribute that names additional fields to pick up,
// as a comma-separated list.
const extraFieldsKey = "ExtraMetricFields"

type gcpMetadataCollector struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	fields []string
	labels map[string]string
}

// NewGCPMetadataCollector reads GCE instance attributes from the metadata
// server and reports them as metadata labels on a heartbeat gauge.
// extraFields seeds the attribute names to pick up; the metadata server can
// extend the list through its ExtraMetricFields attribute.
func NewGCPMetadataCollector(extraFields []string) Collector {
	return newGCPMetadataCollector(gcpMetadataURL, extraFields)
}

func newGCPMetadataCollector(url string, extraFields []string) *gcpMetadataCollector {
	return &gcpMetadataCollector{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		fields: append([]string(nil), extraFields...),
		labels: make(map[string]string),
	}
}

func (c *gcpMetadataCollector) ID() string   { return "gcp_metadata" }
func (c *gcpMetadataCollector) Name() string { return "GCP metadata" }
func (c *gcpMetadataCollector) Description() string {
	return "GCE instance attributes attached as metric metadata"
}

func (c *gcpMetadataCollector) MetricNames() []string {
	return []string{"metadata/gauge"}
}

func (c *gcpMetadataCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata server: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.parseAttributes(string(body))
	meta := make(map[string]string, len(c.labels))
	for k, v := range c.labels {
		meta[k] = v
	}
	c.mu.Unlock()

	s := makeSample("metadata", "gauge", metric.Gauge(1.5))
	s.Meta = meta
	return []metric.Sample{s}, nil
}

// parseAttributes picks the configured fields out of the attributes JSON.
// The server can extend the field list via ExtraMetricFields. Caller holds
// the lock.
func (c *gcpMetadataCollector) parseAttributes(body string) {
	if extra := gjson.Get(body, extraFieldsKey); extra.Exists() {
		for _, name := range strings.Split(extra.String(), ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				c.addField(name)
			}
		}
	}
	for _, name := range c.fields {
		if v := gjson.Get(body, name); v.Exists() {
			c.labels[name] = v.String()
		}
	}
}

func (c *gcpMetadataCollector) addField(name string) {
	for _, f := range c.fields {
		if f == name {
			return
		}
	}
	c.fields = append(c.fields, name)
}
