package clicmds

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/offview/profile"
)

func PolicyCheckFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "policy file to check",
			Value: "policy.toml",
		},
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "save the policy into this profile data directory",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "profile name to save under",
			Value: "default",
		},
	}
}

// LoadPolicy reads and validates a toml policy file
func LoadPolicy(file string) (*profile.Policy, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	policy := &profile.Policy{}
	if err := toml.NewDecoder(strings.NewReader(string(data))).Decode(policy); err != nil {
		return nil, errors.Wrap(err, "decoding policy")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// PolicyCheck validates a policy file, prints what it would do and
// optionally saves it into a profile
func PolicyCheck(ctx *cli.Context) error {
	policy, err := LoadPolicy(ctx.String("file"))
	if err != nil {
		log.Error().Err(err).Str("file", ctx.String("file")).Msg("policy rejected")
		return err
	}

	fmt.Printf("policy %q: filtering mode %s\n", policy.Name, policy.FilteringMode)
	for _, filter := range policy.Filters {
		fmt.Printf("  filter: %s\n", filter)
	}
	for name, definition := range policy.Definitions {
		fmt.Printf("  definition %q: %d headers\n", name, len(definition))
	}
	for _, rule := range policy.Rules {
		fmt.Printf("  rewrite %q -> %q\n", rule.Rule, rule.Definition)
	}

	if ctx.String("datadir") == "" {
		return nil
	}

	store := profile.NewStore(ctx.String("datadir"), ctx.String("profile"))
	if err := store.Init(); err != nil {
		log.Error().Err(err).Msg("failed to open profile store")
		return err
	}
	defer store.Close()
	if err := store.SavePolicy(policy); err != nil {
		return err
	}
	fmt.Printf("saved policy %q to profile %q\n", policy.Name, ctx.String("profile"))
	return nil
}

func HistoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "profile data directory",
			Value: "offviewtmp",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "profile name",
			Value: "default",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "max entries to print, 0 prints everything",
			Value: 0,
		},
	}
}

// History prints the visit log of a profile
func History(ctx *cli.Context) error {
	store := profile.NewStore(ctx.String("datadir"), ctx.String("profile"))
	if err := store.Init(); err != nil {
		log.Error().Err(err).Msg("failed to open profile store")
		return err
	}
	defer store.Close()

	visits, err := store.History(ctx.Int("limit"))
	if err != nil {
		return err
	}
	if len(visits) == 0 {
		return fmt.Errorf("no visits recorded")
	}
	fmt.Printf("Had %d visits\n", len(visits))
	for _, visit := range visits {
		fmt.Printf("%s  %s  %s\n", visit.Observed.Format("2006-01-02 15:04:05"), visit.URL, visit.Title)
	}
	return nil
}
