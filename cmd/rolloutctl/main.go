package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/rolloutctl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	apiURL := fs.String("api", envOr("ROLLOUT_API", "http://localhost:8090/api/v1"), "Rollout API base URL")
	operator := fs.String("as", envOr("ROLLOUT_OPERATOR", os.Getenv("USER")), "Operator name sent with every request")

	var err error
	switch cmd {
	case "apply":
		file := fs.String("f", "", "Path to deployment config YAML file (required)")
		fs.Parse(args)
		if *file == "" {
			fail("Usage: rolloutctl apply -f <configs.yaml>")
		}
		err = client(*apiURL, *operator).Apply(ctx, *file, os.Stdout)

	case "configs":
		name := fs.String("name", "", "Only list versions of this config")
		fs.Parse(args)
		err = client(*apiURL, *operator).ListConfigs(ctx, *name, os.Stdout)

	case "deploy":
		wait := fs.Bool("wait", false, "Wait for the deployment to finish")
		timeout := fs.Duration("timeout", 6*time.Hour, "Maximum time to wait")
		fs.Parse(args)
		if fs.NArg() < 2 {
			fail("Usage: rolloutctl deploy [-wait] <config-id> <version>")
		}
		err = deploy(ctx, client(*apiURL, *operator), fs.Arg(0), fs.Arg(1), *operator, *wait, *timeout)

	case "approve", "reject":
		comments := fs.String("m", "", "Comments recorded with the decision")
		fs.Parse(args)
		if fs.NArg() < 1 {
			fail(fmt.Sprintf("Usage: rolloutctl %s [-m comments] <deployment-id>", cmd))
		}
		var d *model.Deployment
		d, err = client(*apiURL, *operator).Decide(ctx, fs.Arg(0), *operator, cmd == "approve", *comments)
		if err == nil {
			fmt.Printf("Recorded %s decision from %s on %s (status %s)\n", cmd, *operator, d.ID, d.Status)
		}

	case "rollback-decision":
		approve := fs.Bool("approve", false, "Approve the rollback (default declines)")
		reason := fs.String("reason", "", "Reason recorded with the decision")
		fs.Parse(args)
		if fs.NArg() < 1 {
			fail("Usage: rolloutctl rollback-decision [-approve] [-reason text] <deployment-id>")
		}
		err = client(*apiURL, *operator).DecideRollback(ctx, fs.Arg(0), *operator, *approve, *reason)
		if err == nil {
			fmt.Println("Rollback decision sent")
		}

	case "status":
		fs.Parse(args)
		if fs.NArg() < 1 {
			fail("Usage: rolloutctl status <deployment-id>")
		}
		var d *model.Deployment
		d, err = client(*apiURL, *operator).GetDeployment(ctx, fs.Arg(0))
		if err == nil {
			rolloutctl.PrintDeployment(os.Stdout, d)
		}

	case "logs":
		follow := fs.Bool("f", false, "Follow the log until the deployment finishes")
		fs.Parse(args)
		if fs.NArg() < 1 {
			fail("Usage: rolloutctl logs [-f] <deployment-id>")
		}
		c := client(*apiURL, *operator)
		if *follow {
			err = c.Follow(ctx, fs.Arg(0), os.Stdout)
		} else {
			err = c.Logs(ctx, fs.Arg(0), os.Stdout)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func deploy(ctx context.Context, c *rolloutctl.Client, configID, version, operator string, wait bool, timeout time.Duration) error {
	d, err := c.Deploy(ctx, configID, version, operator)
	if err != nil {
		return err
	}
	fmt.Printf("Deployment %s created (status %s)\n", d.ID, d.Status)
	if !wait {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	final, err := c.Wait(ctx, d.ID, 5*time.Second, func(d *model.Deployment) {
		fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), d.Status)
	})
	if err != nil {
		return err
	}
	rolloutctl.PrintDeployment(os.Stdout, final)
	if final.Status != model.StatusCompleted {
		return fmt.Errorf("deployment %s ended %s", final.ID, final.Status)
	}
	return nil
}

func client(apiURL, operator string) *rolloutctl.Client {
	return rolloutctl.NewClient(apiURL, operator)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(usage string) {
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  rolloutctl apply -f <configs.yaml>
  rolloutctl configs [-name NAME]
  rolloutctl deploy [-wait] [-timeout D] <config-id> <version>
  rolloutctl approve|reject [-m comments] <deployment-id>
  rolloutctl rollback-decision [-approve] [-reason text] <deployment-id>
  rolloutctl status <deployment-id>
  rolloutctl logs [-f] <deployment-id>

Common flags:
  -api string   Rollout API base URL (env ROLLOUT_API, default http://localhost:8090/api/v1)
  -as string    Operator name (env ROLLOUT_OPERATOR, default $USER)`)
}
