package rolloutctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

// LoadConfigs reads deployment configs from a YAML stream. Each document is
// one config.
func LoadConfigs(r io.Reader) ([]model.DeploymentConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []model.DeploymentConfig
	for {
		var cfg model.DeploymentConfig
		err := dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %d: %w", len(out)+1, err)
		}
		if cfg.Name == "" {
			return nil, fmt.Errorf("config %d: name is required", len(out)+1)
		}
		out = append(out, cfg)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no configs found")
	}
	return out, nil
}

// Apply submits every config in the YAML file as a new config version and
// prints the assigned ids.
func (c *Client) Apply(ctx context.Context, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	configs, err := LoadConfigs(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, cfg := range configs {
		resp, err := c.Post(ctx, "/configs", cfg)
		if err != nil {
			return fmt.Errorf("apply %s/%s: %w", cfg.Name, cfg.Environment, err)
		}
		var created model.DeploymentConfig
		if err := resp.Decode(&created); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s/%s version %d: %s\n", created.Name, created.Environment, created.Version, created.ID)
	}
	return nil
}

// ListConfigs prints every config version, optionally only those of one name.
func (c *Client) ListConfigs(ctx context.Context, name string, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tENVIRONMENT\tSTRATEGY\tCREATED BY")

	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	for {
		resp, err := c.Get(ctx, "/configs?"+q.Encode())
		if err != nil {
			return err
		}
		var page []store.ConfigSummary
		next, err := resp.Items(&page)
		if err != nil {
			return err
		}
		for _, s := range page {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", s.ID, s.Name, s.Version, s.Environment, s.Strategy, s.CreatedBy)
		}
		if next == "" {
			break
		}
		q.Set("cursor", next)
	}
	return tw.Flush()
}
