package metrics

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MAGDA/Melody"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
	}, nil
}

// Enabled reports whether metrics are shipped to CloudWatch
func (m *Client) Enabled() bool {
	return m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions("Endpoint", endpoint)
		m.send(metricName, 1, types.StandardUnitCount, dimensions)
		m.send("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	}()
}

// RecordGeneration records duration, attempts and score of a generation
func (m *Client) RecordGeneration(_ context.Context, g Generation) {
	if !m.enabled {
		return
	}

	go func() {
		dimensions := append(m.dimensions("Strategy", g.Strategy), types.Dimension{
			Name:  aws.String("Success"),
			Value: aws.String(strconv.FormatBool(g.Success)),
		})

		m.send("GenerationDuration", float64(g.Duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
		if g.CacheHit {
			m.send("GenerationCacheHits", 1, types.StandardUnitCount, dimensions)
			return
		}
		m.send("GenerationAttempts", float64(g.Attempts), types.StandardUnitCount, dimensions)
		m.send("GenerationScore", g.Score, types.StandardUnitNone, dimensions)
		if g.Status == "fallback" {
			m.send("ConstraintFallbacks", 1, types.StandardUnitCount, dimensions)
		}
	}()
}

func (m *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{
			Name:  aws.String(name),
			Value: aws.String(value),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}
}

func (m *Client) send(metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(metricName, value, unit, dimensions); err != nil {
		log.Printf("Failed to record %s metric: %v", metricName, err)
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
