// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/vkr"
	log "github.com/sirupsen/logrus"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("indent", true, "Indent the JSON output")
)

type accelerator struct {
	core.AcceleratorInfo
	Rank int64 `json:"rank"`
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)

	cfg := core.InstanceConfiguration{
		DebugMode:  *debug,
		Extensions: []string{},
		Layers:     []string{},
	}

	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, nil, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer instance.Release()

	accelerators, err := instance.Accelerators()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		instance.Release()
		os.Exit(1)
	}

	out := make([]accelerator, 0, len(accelerators))
	for _, acc := range accelerators {
		out = append(out, accelerator{
			AcceleratorInfo: acc.Info,
			Rank:            core.Rank(acc.Info),
		})
	}

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(out, "", "  ")
	} else {
		bytes, err = json.Marshal(out)
	}
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", bytes)
}
