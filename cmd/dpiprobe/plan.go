// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"strings"
)

func planMain(ctx context.Context, env *environ, args []string) error {
	var cf commonFlags
	fs := env.newFlagSet("plan", "plan [OPTIONS]", &cf)
	domain := fs.StringP("domain", "d", "", "domain queried by the DNS probes")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return errUsage
	}
	cfg, err := cf.loadConfig()
	if err != nil {
		return err
	}
	if fs.Changed("domain") {
		cfg.Client.Domain = *domain
	}
	specs, err := cfg.Client.Specs()
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s %-5s %5s %-6s %-8s %5s\n", "Label", "Proto", "Port", "Family", "Kind", "Size")
	for _, spec := range specs {
		fmt.Fprintf(&sb, "%-20s %-5s %5d %-6s %-8s %5d\n", spec.Label, spec.Transport,
			spec.Port, spec.Family, spec.Kind, len(spec.Payload))
	}
	_, err = fmt.Fprint(env.stdout, sb.String())
	return err
}
