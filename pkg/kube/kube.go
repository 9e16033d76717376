// Package kube points kubectl at an EKS cluster and restarts deployments.
package kube

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/shell"
)

// DescribeAPI is the subset of the EKS client used to check cluster health.
type DescribeAPI interface {
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

// Client runs the aws and kubectl CLIs.
type Client struct {
	exec   shell.Executor
	eks    DescribeAPI
	region string
}

// New returns a Client for clusters in region. A nil api skips the cluster status check.
func New(exec shell.Executor, api DescribeAPI, region string) *Client {
	return &Client{exec: exec, eks: api, region: region}
}

// NewFromConfig builds the EKS client from SDK configuration.
func NewFromConfig(exec shell.Executor, cfg awssdk.Config, region string) *Client {
	return New(exec, eks.NewFromConfig(cfg), region)
}

// Setup writes a kubeconfig entry for cluster.
func (c *Client) Setup(ctx context.Context, cluster string) error {
	if err := c.checkActive(ctx, cluster); err != nil {
		return err
	}
	return c.run(ctx, fmt.Sprintf("aws eks update-kubeconfig --name %s --region %s", cluster, c.region))
}

// Rollout restarts deployment in namespace.
func (c *Client) Rollout(ctx context.Context, deployment, namespace string) error {
	return c.run(ctx, fmt.Sprintf("kubectl rollout restart deploy/%s -n %s", deployment, namespace))
}

func (c *Client) checkActive(ctx context.Context, cluster string) error {
	if c.eks == nil {
		return nil
	}
	out, err := c.eks.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: awssdk.String(cluster)})
	if err != nil {
		return madsaws.Wrap(err, errUtils.ErrKubeRollout, "describing cluster %s", cluster)
	}
	if out.Cluster == nil || out.Cluster.Status != types.ClusterStatusActive {
		var status types.ClusterStatus
		if out.Cluster != nil {
			status = out.Cluster.Status
		}
		return errUtils.Build(errors.Wrapf(errUtils.ErrKubeRollout, "cluster %s is not active", cluster)).
			WithContext("status", string(status)).
			Err()
	}
	log.Debug("Cluster is active", "cluster", cluster, "version", awssdk.ToString(out.Cluster.Version))
	return nil
}

func (c *Client) run(ctx context.Context, line string) error {
	cmd := shell.Command{Line: line}
	res, err := c.exec.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if err := shell.Check(cmd, res); err != nil {
		return errUtils.Mark(err, errUtils.ErrKubeRollout)
	}
	return nil
}
