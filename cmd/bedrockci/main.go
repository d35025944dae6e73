// Copyright 2025 Yaru Games
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command bedrockci validates Minecraft Bedrock content packs by running
// them against a real dedicated server and judging its log output.
package main

import (
	"fmt"
	"os"

	"github.com/yarugames/bedrockci/pkg/logger"
)

func main() {
	logger.Initialize()
	defer func() {
		_ = logger.Sync()
	}()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
