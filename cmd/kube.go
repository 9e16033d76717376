package cmd

import (
	"github.com/spf13/cobra"

	"github.com/umsi-mads/mads/pkg/kube"
)

func newKubeCmd(a *app) *cobra.Command {
	var checkCluster bool

	cmd := &cobra.Command{
		Use:   "kube",
		Short: "Helpers for interacting with Kubernetes",
	}

	rollout := &cobra.Command{
		Use:     "rollout <cluster> <deployment> <namespace>",
		Short:   "Restart the given deployment",
		Example: "  mads kube rollout courses course-site production",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := a.cfg.Kube.Region
			client := kube.New(a.exec, nil, region)
			if checkCluster {
				sdk, err := a.awsConfig(cmd.Context(), region)
				if err != nil {
					return err
				}
				client = kube.NewFromConfig(a.exec, sdk, region)
			}

			if err := client.Setup(cmd.Context(), args[0]); err != nil {
				return err
			}
			return client.Rollout(cmd.Context(), args[1], args[2])
		},
	}
	rollout.Flags().BoolVar(&checkCluster, "check-cluster", false, "Verify the EKS cluster is active before updating kubeconfig")

	cmd.AddCommand(rollout)
	return cmd
}
