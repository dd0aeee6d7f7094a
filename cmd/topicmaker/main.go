package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/shop-assistant/config"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	policyDelete  = "delete"
	policyCompact = "compact"
)

type sizing struct {
	partitions        int32
	replicationFactor int16
	minISR            int
}

// A topicSpec is a topic to create with its cleanup policy.
type topicSpec struct {
	name   string
	policy string
}

func main() {
	sigCtx, closeApp := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer closeApp()

	sz := parseSizing()
	cfg := config.Load()

	cl := createClient(cfg.Broker.SeedBrokers)
	defer cl.Close()

	specs := topicPlan(cfg)
	printStart(specs)
	defer printComplete(time.Now())

	for _, policy := range []string{policyDelete, policyCompact} {
		err := makeTopics(sigCtx, cl, sz, policy, namesWithPolicy(specs, policy)...)
		if err != nil {
			printFail(err)
			os.Exit(1)
		}
	}
}

// parseSizing ignores unknown flags, so --config is left to config.Load.
func parseSizing() sizing {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	partitions := fs.Int32("partitions", 3, "partitions per topic")
	rf := fs.Int16("replication-factor", 3, "replication factor")
	minISR := fs.Int("min-isr", 1, "min.insync.replicas")
	_ = fs.Parse(os.Args[1:])
	return sizing{*partitions, *rf, *minISR}
}

// topicPlan lists the catalog and moderation streams with delete policy
// and the moderation group table with compact policy.
func topicPlan(cfg config.Config) []topicSpec {
	return []topicSpec{
		{name: cfg.Broker.Topics.Products, policy: policyDelete},
		{name: cfg.Broker.Topics.ProductFilter, policy: policyDelete},
		{
			name:   toGroupTable(cfg.Broker.Consumers.ProductFilterGroup),
			policy: policyCompact,
		},
	}
}

func namesWithPolicy(specs []topicSpec, policy string) []string {
	var names []string
	for _, s := range specs {
		if s.policy == policy {
			names = append(names, s.name)
		}
	}
	return names
}

func createClient(seedBrokers []string) *kadm.Client {
	cl, err := kadm.NewOptClient(
		kgo.SeedBrokers(seedBrokers...),
	)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context,
	cl *kadm.Client,
	sz sizing,
	cleanupPolicy string,
	topics ...string,
) error {
	if len(topics) == 0 {
		return nil
	}

	minISR := strconv.Itoa(sz.minISR)
	configs := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx, sz.partitions, sz.replicationFactor, configs, topics...,
	)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		if res.Err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
				continue
			}
			errs = append(errs, fmt.Errorf("topic %q: %w", res.Topic, res.Err))
			continue
		}
		fmt.Printf("topic: %q (%s) successfully created\n", res.Topic, cleanupPolicy)
	}
	return errors.Join(errs...)
}

func printStart(specs []topicSpec) {
	fmt.Println("initializing topics...")
	for _, s := range specs {
		fmt.Printf("\t- %q %s\n", s.name, s.policy)
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

// toGroupTable returns the topic goka uses as the group table.
func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
