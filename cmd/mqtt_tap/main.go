// mqtt_tap runs capture scenarios and publishes each Read call's
// result to an MQTT broker, one topic per scenario and stream.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/procwire/procwire/lib/logger"
	"github.com/procwire/procwire/proc"
	"go.uber.org/zap"
)

var (
	configPath  = flag.String("c", "data/config/bench.yaml", "path to the scenario config")
	brokerURL   = flag.String("broker", "tcp://127.0.0.1:1883", "mqtt broker url")
	topicPrefix = flag.String("topic_prefix", "procwire", "mqtt topic prefix")
)

func main() {
	flag.Parse()
	logger.InitLogger()

	cfg, err := proc.ParseConfig(*configPath)
	if err != nil {
		logger.Fatal("error parsing scenario config", zap.Error(err))
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(*brokerURL)
	opts.SetClientID("procwire-mqtt-tap")
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal("error connecting to mqtt and creating token", zap.Error(token.Error()))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down")
		client.Disconnect(250)
		os.Exit(0)
	}()

	var wg sync.WaitGroup
	for _, sc := range cfg.Scenarios {
		wg.Add(1)
		go func(sc proc.Scenario) {
			defer wg.Done()
			if err := tapScenario(sc, client); err != nil {
				logger.Error("error in tap", zap.String("scenario", sc.Name), zap.Error(err))
			}
		}(sc)
	}

	wg.Wait()
	client.Disconnect(250)
}

func tapScenario(sc proc.Scenario, client mqtt.Client) error {
	scLog := logger.Log().With(zap.String("scenario", sc.Name))
	scLog.Info("starting tap")

	_, err := proc.RunScenario(sc, func(s proc.Sample) {
		jsonStr, err := json.Marshal(s)
		if err != nil {
			scLog.Error("error marshaling sample", zap.Error(err))
			return
		}
		// qos=0 delivery not guaranteed
		client.Publish(fmt.Sprintf("%s/%s/samples", *topicPrefix, sc.Name), 0, false, jsonStr)
	})
	if err != nil {
		return fmt.Errorf("running scenario: %w", err)
	}

	scLog.Info("tap complete")
	return nil
}
