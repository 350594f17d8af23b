package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"tender-crew/agent"
	"tender-crew/config"
	"tender-crew/knowledge"
)

var errUsage = errors.New("invalid arguments, see --help")

func (a *app) knowledgeCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	kb, err := a.knowledgeStore()
	if err != nil {
		return err
	}

	switch args[0] {
	case "list", "ls":
		names, err := kb.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintf(a.stdout, "The knowledge base in %s is empty.\n", kb.Dir())
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(a.stdout, name)
		}
		return nil

	case "add":
		if len(args) < 2 {
			return errUsage
		}
		return addToKnowledgeBase(kb, args[1:])

	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		name, exact, err := kb.Resolve(args[1])
		if err != nil {
			return err
		}
		if !exact {
			return fmt.Errorf("no file named %q, did you mean %q?", args[1], name)
		}
		return kb.Delete(name)

	case "feed":
		if len(args) < 2 {
			return errUsage
		}
		n, err := kb.Ingest(ctx, knowledge.NewFeedProcessor(), args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Added %d announcement(s) to the knowledge base.\n", n)
		return nil
	}
	return fmt.Errorf("unknown kb command %q: %w", args[0], errUsage)
}

// addToKnowledgeBase copies files into the store as they are.
func addToKnowledgeBase(kb *knowledge.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := kb.Save(filepath.Base(path), data); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) configCommand(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "show":
		roster, err := a.roster("")
		if err != nil {
			return err
		}
		node, err := rosterConfigs(roster)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(node)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "# %s\n", a.settings.AgentConfigsPath)
		_, err = a.stdout.Write(out)
		return err

	case "set":
		if len(args) < 2 {
			return errUsage
		}
		return a.setAgentConfig(args[1], args[2:])

	case "schema":
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(schema))
		return nil
	}
	return fmt.Errorf("unknown config command %q: %w", args[0], errUsage)
}

func (a *app) setAgentConfig(role string, args []string) error {
	fs := flag.NewFlagSet("config set", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	instructions := fs.String("instructions", "", "what the role is asked to do")
	backstory := fs.String("backstory", "", "persona the role speaks as")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var roles []string
	for _, spec := range agent.DefaultRoster(a.settings.Locale) {
		roles = append(roles, spec.Name)
	}
	if !slices.Contains(roles, role) {
		if matches := fuzzy.Find(role, roles); len(matches) > 0 {
			return fmt.Errorf("%w: %s, did you mean %q?", agent.ErrUnknownRole, role, matches[0].Str)
		}
		return fmt.Errorf("%w: %s", agent.ErrUnknownRole, role)
	}

	store := a.configStore()
	configs, err := store.Load()
	if err != nil {
		return err
	}
	// Entries saved under another locale's name for this role are folded in.
	cfg, own := configs[role]
	var aliases []string
	for name, c := range configs {
		if local, ok := a.settings.Locale.LocalizeRole(name); ok && local == role && name != role {
			aliases = append(aliases, name)
			if !own {
				cfg = c
			}
		}
	}
	if *instructions != "" {
		cfg.Instructions = *instructions
	}
	if *backstory != "" {
		cfg.Backstory = *backstory
	}
	if err := store.Set(role, cfg, aliases...); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Saved %s to %s\n", role, store.Path())
	return nil
}

// rosterConfigs keeps roster order in the YAML output.
func rosterConfigs(roster []agent.Spec) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, spec := range roster {
		var value yaml.Node
		if err := value.Encode(config.AgentConfig{Instructions: spec.Instructions, Backstory: spec.Persona}); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", spec.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: spec.Name},
			&value,
		)
	}
	return node, nil
}
