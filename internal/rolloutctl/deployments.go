package rolloutctl

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/edvin/rollout/internal/model"
)

// Deploy starts a deployment of a config version.
func (c *Client) Deploy(ctx context.Context, configID, version, deployedBy string) (*model.Deployment, error) {
	resp, err := c.Post(ctx, "/deployments", map[string]string{
		"config_id":   configID,
		"version":     version,
		"deployed_by": deployedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy %s of config %s: %w", version, configID, err)
	}
	var d model.Deployment
	if err := resp.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetDeployment(ctx context.Context, id string) (*model.Deployment, error) {
	resp, err := c.Get(ctx, "/deployments/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var d model.Deployment
	if err := resp.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Decide records an approval decision.
func (c *Client) Decide(ctx context.Context, id, approver string, approved bool, comments string) (*model.Deployment, error) {
	resp, err := c.Post(ctx, "/deployments/"+url.PathEscape(id)+"/approvals", map[string]any{
		"approver_id": approver,
		"approved":    approved,
		"comments":    comments,
	})
	if err != nil {
		return nil, err
	}
	var d model.Deployment
	if err := resp.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecideRollback answers a pending manual rollback request.
func (c *Client) DecideRollback(ctx context.Context, id, decidedBy string, approved bool, reason string) error {
	_, err := c.Post(ctx, "/deployments/"+url.PathEscape(id)+"/rollback-decision", map[string]any{
		"decided_by": decidedBy,
		"approved":   approved,
		"reason":     reason,
	})
	return err
}

// Wait polls the deployment until it reaches a terminal status or ctx ends.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration, onChange func(*model.Deployment)) (*model.Deployment, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		d, err := c.GetDeployment(ctx, id)
		if err != nil {
			return nil, err
		}
		if d.Status != last {
			last = d.Status
			if onChange != nil {
				onChange(d)
			}
		}
		if model.IsTerminal(d.Status) {
			return d, nil
		}
		select {
		case <-ctx.Done():
			return d, fmt.Errorf("wait for deployment %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// PrintDeployment writes a human readable summary of d.
func PrintDeployment(w io.Writer, d *model.Deployment) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", d.ID)
	fmt.Fprintf(tw, "Config:\t%s (%s)\n", d.ConfigName, d.ConfigID)
	fmt.Fprintf(tw, "Environment:\t%s\n", d.Environment)
	fmt.Fprintf(tw, "Version:\t%s", d.Version)
	if d.PreviousVersion != "" {
		fmt.Fprintf(tw, " (previous %s)", d.PreviousVersion)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Strategy:\t%s\n", d.Strategy)
	fmt.Fprintf(tw, "Status:\t%s\n", d.Status)
	if d.StatusMessage != nil {
		fmt.Fprintf(tw, "Message:\t%s\n", *d.StatusMessage)
	}
	fmt.Fprintf(tw, "Deployed by:\t%s\n", d.DeployedBy)
	tw.Flush()

	if len(d.Approvals) > 0 {
		fmt.Fprintln(w, "\nApprovals:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, a := range d.Approvals {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.ApproverID, a.Status, a.Comments)
		}
		tw.Flush()
	}

	if len(d.Checks) > 0 {
		fmt.Fprintln(w, "\nChecks:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range d.Checks {
			req := "optional"
			if c.Required {
				req = "required"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.Phase, c.Name, c.Type, req, c.Status)
			if len(c.Errors) > 0 {
				fmt.Fprintf(tw, "  \t\t\t\t%s\n", strings.Join(c.Errors, "; "))
			}
		}
		tw.Flush()
	}

	if d.Rollback != nil {
		rb := d.Rollback
		fmt.Fprintf(w, "\nRollback to %s triggered by %s (%dms, success=%t)\n",
			rb.PreviousVersion, rb.TriggeredBy, rb.RollbackDurationMS, rb.Success)
		if rb.Reason != "" {
			fmt.Fprintf(w, "  reason: %s\n", rb.Reason)
		}
		if rb.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", rb.Error)
		}
	}
}
