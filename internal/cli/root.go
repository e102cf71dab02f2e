// Package cli implements the tessera command line.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/jacentio/tessera/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose        bool
	Region         string
	Profile        string
	Endpoint       string
	ConsistentRead bool
}

// NewRootCommand creates the root command for the tessera CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tessera",
		Short: "Query DynamoDB tables through tessera plans",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Region, "region", "", "AWS region (default from environment)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "AWS shared config profile")
	cmd.PersistentFlags().StringVar(&opts.Endpoint, "endpoint", "", "DynamoDB endpoint override (e.g. DynamoDB Local)")
	cmd.PersistentFlags().BoolVar(&opts.ConsistentRead, "consistent", false, "strongly consistent reads")

	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// newStore builds a Store from the AWS default credential chain.
func newStore(ctx context.Context, opts *RootOptions) (*store.Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	cfg := store.DefaultConfig()
	cfg.ConsistentRead = opts.ConsistentRead
	return store.NewWithLogger(client, cfg, slog.Default()), nil
}
