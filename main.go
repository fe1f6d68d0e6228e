package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	cfenv "github.com/cloudfoundry-community/go-cfenv"
	"github.com/pivotal-cf/brokerapi/v10"

	"github.com/cloud-gov/riak-cs-broker/awss3"
	"github.com/cloud-gov/riak-cs-broker/broker"
	brokerConfig "github.com/cloud-gov/riak-cs-broker/config"
	"github.com/cloud-gov/riak-cs-broker/instances"
	"github.com/cloud-gov/riak-cs-broker/provider"
	"github.com/cloud-gov/riak-cs-broker/riakcs"
)

var (
	configFilePath string
	port           string

	logLevels = map[string]lager.LogLevel{
		"DEBUG": lager.DEBUG,
		"INFO":  lager.INFO,
		"ERROR": lager.ERROR,
		"FATAL": lager.FATAL,
	}
)

func init() {
	flag.StringVar(&configFilePath, "config", "", "Location of the config file")
	flag.StringVar(&port, "port", "3000", "Listen port")
}

func buildLogger(logLevel string) lager.Logger {
	laggerLogLevel, ok := logLevels[strings.ToUpper(logLevel)]
	if !ok {
		log.Fatal("Invalid log level: ", logLevel)
	}

	logger := lager.NewLogger("riak-cs-broker")
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, laggerLogLevel))

	return logger
}

func main() {
	flag.Parse()

	config, err := brokerConfig.LoadConfig(configFilePath)
	if err != nil {
		log.Fatalf("Error loading config file: %s", err)
	}

	logger := buildLogger(config.LogLevel)

	riakCS := config.RiakCS
	endpoints := provider.New(riakCS.Scheme, riakCS.Host, riakCS.Port)
	adminCredentials := credentials.NewStaticCredentials(riakCS.AccessKeyID, riakCS.SecretAccessKey, "")
	httpClient := riakCS.HTTPClient()

	awsConfig := aws.NewConfig().
		WithRegion(riakCS.Region).
		WithEndpoint(endpoints.Endpoint()).
		WithS3ForcePathStyle(true).
		WithCredentials(adminCredentials).
		WithHTTPClient(httpClient).
		WithMaxRetries(0)
	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		log.Fatalf("Error creating AWS session: %s", err)
	}

	s3bucket := awss3.NewS3Bucket(s3.New(awsSession), logger)
	user := riakcs.NewRiakCSUser(httpClient, endpoints.AdminURL(), adminCredentials, riakCS.Region, logger)

	registry := instances.NewRegistry(s3bucket, logger)
	bindings, err := instances.NewBindings(context.Background(), registry, s3bucket, user, endpoints, logger)
	if err != nil {
		log.Fatalf("Error preparing the bookkeeping bucket: %s", err)
	}

	serviceBroker := broker.New(riakCS, registry, bindings, logger)

	brokerCredentials := brokerapi.BrokerCredentials{
		Username: config.Username,
		Password: config.Password,
	}

	brokerAPI := brokerapi.New(serviceBroker, logger, brokerCredentials)
	http.Handle("/", brokerAPI)

	if cfenv.IsRunningOnCF() {
		appEnv, err := cfenv.Current()
		if err != nil {
			log.Fatalf("Error reading the Cloud Foundry environment: %s", err)
		}
		port = strconv.Itoa(appEnv.Port)
	}

	fmt.Println("Riak CS Service Broker started on port " + port + "...")
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
