package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v3"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/cmd/tasks/acls"
	brokerConfig "github.com/cloud-gov/riak-cs-broker/config"
	"github.com/cloud-gov/riak-cs-broker/instances"
	"github.com/cloud-gov/riak-cs-broker/provider"
)

func newAuditor(configFilePath string, logger lager.Logger) (*acls.Auditor, error) {
	config, err := brokerConfig.LoadConfig(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}
	riakCS := config.RiakCS

	endpoints := provider.New(riakCS.Scheme, riakCS.Host, riakCS.Port)
	adminCredentials := credentials.NewStaticCredentials(riakCS.AccessKeyID, riakCS.SecretAccessKey, "")
	sess, err := session.NewSession(aws.NewConfig().
		WithRegion(riakCS.Region).
		WithEndpoint(endpoints.Endpoint()).
		WithS3ForcePathStyle(true).
		WithCredentials(adminCredentials).
		WithHTTPClient(riakCS.HTTPClient()).
		WithMaxRetries(0))
	if err != nil {
		return nil, fmt.Errorf("could not initialize session: %w", err)
	}

	bucket := awss3.NewS3Bucket(s3.New(sess), logger)
	return acls.NewAuditor(bucket, instances.NewBindingRecords(bucket), logger), nil
}

func main() {
	var configFilePath string
	configFlag := &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Location of the config file", Destination: &configFilePath, Sources: cli.EnvVars("CONFIG_FILE")}

	var fix bool
	fixFlag := &cli.BoolFlag{Name: "fix", Usage: "Revoke the grants that are reported", Destination: &fix}

	logger := lager.NewLogger("riak-cs-broker-tasks")
	logger.RegisterSink(lager.NewWriterSink(os.Stderr, lager.INFO))

	cmd := &cli.Command{
		Usage:           "Operator tasks for the Riak CS service broker",
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:            "audit-acls",
				Usage:           "Report instance bucket grants that no binding accounts for",
				HideHelpCommand: true,
				Flags:           []cli.Flag{configFlag, fixFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					if configFilePath == "" {
						return errors.New("--config flag is required")
					}

					auditor, err := newAuditor(configFilePath, logger)
					if err != nil {
						return err
					}

					findings, err := auditor.Audit(ctx)
					if err != nil {
						return err
					}
					for _, finding := range findings {
						fmt.Println(finding)
					}

					if !fix || len(findings) == 0 {
						return nil
					}
					return auditor.Fix(ctx, findings)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
