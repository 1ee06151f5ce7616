// Package api serves the rollout REST API: deployment configs, deployments,
// approval and rollback decisions, and deployment logs under /api/v1.
//
//	@title			Rollout API
//	@version		1.0
//	@description	Deployment orchestration: versioned deployment configs, deployments run as Temporal workflows, approval and rollback decisions, and deployment logs.
//	@BasePath		/api/v1
package api

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init -g doc.go -d .,./handler,./request,./response,../model,../store -o docs --outputTypes go
