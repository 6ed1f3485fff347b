package drand

import (
	"fmt"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/drand/go-verifier/internal/lib"
)

// Automatically set through -ldflags
// Example: go install -ldflags "-X github.com/drand/go-verifier/internal.version=$(git describe --tags) -X github.com/drand/go-verifier/internal.buildDate=$(date -u +%d/%m/%Y@%H:%M:%S) -X github.com/drand/go-verifier/internal.gitCommit=$(git rev-parse HEAD)"
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

var SetVersionPrinter sync.Once

var previousFlag = &cli.StringFlag{
	Name:     "previous",
	Usage:    "Hex encoded hash output of the previous round (32 bytes)",
	Required: true,
}

var signatureFlag = &cli.StringFlag{
	Name:     "signature",
	Usage:    "Hex encoded group signature of the round",
	Required: true,
}

var randomnessFlag = &cli.StringFlag{
	Name:     "randomness",
	Usage:    "Hex encoded randomness claimed for the round",
	Required: true,
}

var roundFlag = &cli.Uint64Flag{
	Name: "round",
	Usage: "Request the public randomness generated at round num. If the beacon does not have the requested value," +
		" it returns an error. If not specified, the current randomness is returned.",
	EnvVars: []string{"DRAND_ROUND"},
}

var requiredRoundFlag = &cli.Uint64Flag{
	Name:     "round",
	Usage:    "Round number",
	Required: true,
}

var jsonFlag = &cli.BoolFlag{
	Name:    "json",
	Usage:   "Set the output as json format",
	EnvVars: []string{"DRAND_JSON"},
}

var thresholdFlag = &cli.IntFlag{
	Name:  "threshold",
	Usage: "Number of members needed to produce a group signature",
	Value: 2,
}

var membersFlag = &cli.IntFlag{
	Name:  "members",
	Usage: "Number of members of the generated group",
	Value: 3,
}

var optionalPreviousFlag = &cli.StringFlag{
	Name:  "previous",
	Usage: "Hex encoded previous round hash of the test vector, random if absent",
}

var appCommands = []*cli.Command{
	{
		Name:  "verify",
		Usage: "Verify a beacon offline against a distributed key. Prints verified or not verified.",
		Flags: toArray(append([]cli.Flag{previousFlag, signatureFlag, randomnessFlag, requiredRoundFlag, lib.DistKeyFlag},
			lib.CryptoFlags...)...),
		Action: verifyCmd,
	},
	{
		Name:   "message",
		Usage:  "Print the hex encoded message signed by the beacon nodes for a round.",
		Flags:  toArray(previousFlag, requiredRoundFlag, lib.HasherFlag),
		Action: messageCmd,
	},
	{
		Name: "get",
		Usage: "get allows for public information retrieval from a remote " +
			"beacon node.\n",
		Subcommands: []*cli.Command{
			{
				Name: "public",
				Usage: "Get the latest public randomness from the beacon " +
					"and verify it against the distributed key. Nodes are " +
					"contacted in turn until one answers.\n",
				Flags:  toArray(append([]cli.Flag{roundFlag, jsonFlag}, lib.ClientFlags...)...),
				Action: getPublicRandomness,
			},
			{
				Name:   "distkey",
				Usage:  "Get the distributed key of the group the node belongs to",
				Flags:  lib.ClientFlags,
				Action: getDistKey,
			},
			{
				Name:   "group",
				Usage:  "Get the description of the group the node belongs to",
				Flags:  lib.ClientFlags,
				Action: getGroup,
			},
		},
	},
	{
		Name:   "watch",
		Usage:  "Verify each new round of the beacon until interrupted.",
		Flags:  toArray(append([]cli.Flag{jsonFlag}, lib.ClientFlags...)...),
		Action: watchCmd,
	},
	{
		Name:   "schemes",
		Usage:  "List the pairing schemes beacons can be verified with.",
		Action: schemesCmd,
	},
	{
		Name: "generate",
		Usage: "Deal a fresh threshold group and print a signed test vector " +
			"(previous, round, signature, randomness, distkey).",
		Flags: toArray(optionalPreviousFlag, roundFlag, thresholdFlag, membersFlag,
			lib.SchemeFlag, lib.HasherFlag),
		Action: generateCmd,
	},
}

// CLI runs the drand-verify app
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "drand-verify"

	// See https://cli.urfave.org/v2/examples/bash-completions/#enabling for how to turn on.
	app.EnableBashCompletion = true

	SetVersionPrinter.Do(func() {
		cli.VersionPrinter = func(c *cli.Context) {
			fmt.Fprintf(c.App.Writer, "drand-verify %s (date %v, commit %v)\n", version, buildDate, gitCommit)
		}
	})

	app.ExitErrHandler = func(context *cli.Context, err error) {
		// override to prevent default behavior of calling OS.exit(1),
		// when tests expect to be able to run multiple commands.
	}
	app.Version = version
	app.Usage = "verify the randomness of a drand beacon"
	// =====Commands=====
	// we need to copy the underlying commands to avoid races, cli sadly doesn't support concurrent executions well
	appComm := make([]*cli.Command, len(appCommands))
	for i, p := range appCommands {
		if p == nil {
			continue
		}
		v := *p
		appComm[i] = &v
	}
	app.Commands = appComm
	// we need to copy the underlying flags to avoid races
	verbFlag := *lib.VerboseFlag
	jsonLogFlag := *lib.JSONLogFlag
	app.Flags = toArray(&verbFlag, &jsonLogFlag)
	return app
}

func toArray(flags ...cli.Flag) []cli.Flag {
	return flags
}
