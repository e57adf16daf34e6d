package install

import (
	"encoding/json"
	"fmt"
	"os"
	"segtransport/internal/global"
	"segtransport/internal/receiver"
	"segtransport/internal/sender"
)

// Default config location for a daemon kind
func ConfigPath(mode string) (path string, err error) {
	switch mode {
	case ModeSplit:
		path = global.DefaultConfigSplit
	case ModeProduce:
		path = global.DefaultConfigProduce
	case ModeConsume:
		path = global.DefaultConfigConsume
	default:
		err = fmt.Errorf("unknown mode '%s'", mode)
	}
	return
}

func installConfig(mode string) (err error) {
	configFilePath, err := ConfigPath(mode)
	if err != nil {
		return
	}

	err = os.MkdirAll(global.DefaultConfigDir, 0755)
	if err != nil {
		err = fmt.Errorf("failed to create configuration directory: %v", err)
		return
	}

	// Don't overwrite existing
	_, err = os.Stat(configFilePath)
	if err == nil {
		if !confirmOverwrite(configFilePath) {
			fmt.Printf("Not overwriting configuration file\n")
			return
		}
	}

	err = CreateTemplateConfig(mode, configFilePath)
	if err != nil {
		return
	}

	fmt.Printf("Successfully wrote template configuration file to '%s'\n", configFilePath)
	return
}

// Existing files are only replaced after an interactive yes
var confirmOverwrite = func(path string) bool {
	if !isTerminal() {
		return false
	}
	return confirm(fmt.Sprintf("Configuration file already exists at '%s'. Are you SURE you want to overwrite it?", path))
}

func uninstallConfig(mode string) (err error) {
	configFilePath, err := ConfigPath(mode)
	if err != nil {
		return
	}

	err = os.Remove(configFilePath)
	if err != nil && !os.IsNotExist(err) {
		return
	} else {
		err = nil
	}

	// Only succeeds once every mode's config is gone
	_ = os.Remove(global.DefaultConfigDir)

	fmt.Printf("Successfully removed configuration file '%s'\n", configFilePath)
	return
}

// Writes a JSON template for the daemon kind to filepath
func CreateTemplateConfig(mode string, filepath string) (err error) {
	if filepath == "" {
		err = fmt.Errorf("specify template file path via the --config/-c arguments")
		return
	}

	var newCfg any
	switch mode {
	case ModeSplit:
		newCfg = splitTemplate()
	case ModeProduce:
		newCfg = produceTemplate()
	case ModeConsume:
		newCfg = consumeTemplate()
	default:
		err = fmt.Errorf("unknown mode '%s'", mode)
		return
	}

	confBytes, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		err = fmt.Errorf("error marshaling new config: %v", err)
		return
	}
	confBytes = append(confBytes, []byte("\n")...)

	err = os.WriteFile(filepath, confBytes, 0600)
	if err != nil {
		err = fmt.Errorf("failed to write config to file: %v", err)
		return
	}
	return
}

func splitTemplate() (newCfg sender.JSONConfig) {
	newCfg.Listen = global.DefaultSplitListen
	newCfg.ChunkByteSize = global.DefaultChunkByteSize
	newCfg.CodeServiceURL = global.DefaultCodeServiceURL
	newCfg.CompressBodies = true

	newCfg.Metrics.MaxAge = "72h"
	newCfg.Metrics.Interval = "5s"
	newCfg.Metrics.QueryServerPort = global.HTTPListenPortSplit
	return
}

func produceTemplate() (newCfg sender.JSONConfig) {
	newCfg.Listen = global.DefaultProduceListen
	newCfg.Kafka.Brokers = []string{global.DefaultBrokers}
	newCfg.Kafka.Topic = "segments"

	newCfg.Metrics.MaxAge = "72h"
	newCfg.Metrics.Interval = "5s"
	newCfg.Metrics.QueryServerPort = global.HTTPListenPortProduce
	return
}

func consumeTemplate() (newCfg receiver.JSONConfig) {
	newCfg.Kafka.Brokers = []string{global.DefaultBrokers}
	newCfg.Kafka.Topic = "segments"
	newCfg.Kafka.GroupID = global.DefaultConsumerGroup

	newCfg.Reassembly.CollectionWindow = global.DefaultCollectWindow.String()
	newCfg.Reassembly.PollTimeout = global.DefaultPollTimeout.String()
	newCfg.Reassembly.Retention = global.DefaultRetention.String()
	newCfg.Reassembly.MaxRetry = global.DefaultMaxRetry
	newCfg.Reassembly.CacheMemoryPct = global.DefaultCacheMemoryPct

	newCfg.Outputs.ReceiveURL = global.DefaultReceiveURL
	newCfg.Outputs.PayloadEncoding = global.DefaultPayloadEncoding
	newCfg.Outputs.MinQueueSize = global.DefaultMinQueueSize
	newCfg.Outputs.MaxQueueSize = global.DefaultMaxQueueSize

	newCfg.Metrics.MaxAge = "72h"
	newCfg.Metrics.Interval = "5s"
	newCfg.Metrics.QueryServerPort = global.HTTPListenPortConsume

	newCfg.AutoScaling.Enabled = true
	newCfg.AutoScaling.PollInterval = "5s"
	return
}
