package cli

import (
	"segtransport/internal/global"
	"segtransport/internal/receiver"
	"segtransport/internal/sender"
)

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Segmented Transport (segtransport)",
		FullDescription: "  Splits large payloads into segments, carries them over Kafka and reassembles them",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Splitting
	root.ChildCommands["split"] = &global.CommandSet{
		CommandName:     "split",
		Description:     "Split Messages",
		FullDescription: "Accepts messages over HTTP, splits payloads into segments and forwards them to the produce service or Kafka",
		EnvOverrides:    []string{sender.EnvListen, sender.EnvBrokers, sender.EnvTopic},
		ChildCommands:   nil,
	}

	// Producing
	root.ChildCommands["produce"] = &global.CommandSet{
		CommandName:     "produce",
		Description:     "Produce Segments",
		FullDescription: "Accepts segments over HTTP and publishes them to the configured Kafka topic",
		EnvOverrides:    []string{sender.EnvListen, sender.EnvBrokers, sender.EnvTopic},
		ChildCommands:   nil,
	}

	// Consuming
	root.ChildCommands["consume"] = &global.CommandSet{
		CommandName:     "consume",
		Description:     "Consume and Reassemble",
		FullDescription: "Consumes segments from Kafka in collection windows, reassembles payloads and delivers them to configured outputs",
		EnvOverrides:    []string{receiver.EnvBrokers, receiver.EnvTopic, receiver.EnvReceiveURL},
		ChildCommands:   nil,
	}

	// Setup
	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Configure various aspects of installation, generation, and runtime",
		ChildCommands:   nil,
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
