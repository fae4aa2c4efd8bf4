// Package main renders the moodlist architecture diagrams with go-diagrams.
//
// Run it from the repository root; it writes Graphviz sources under
// docs/diagrams/go-diagrams, which can be rendered with dot.
package main

import (
	"fmt"
	"os"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/gcp"
	"github.com/blushft/go-diagrams/nodes/programming"
	log "github.com/sirupsen/logrus"
)

const outputDir = "docs/diagrams"

func main() {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		log.WithError(err).Fatal("Failed to create diagrams directory")
	}
	if err := os.Chdir(outputDir); err != nil {
		log.WithError(err).Fatal("Failed to enter diagrams directory")
	}

	if err := generateArchitectureDiagram(); err != nil {
		log.WithError(err).Fatal("Failed to generate architecture diagram")
	}
	if err := generateComponentDiagram(); err != nil {
		log.WithError(err).Fatal("Failed to generate component diagram")
	}

	log.Info("✅ Diagrams written to " + outputDir + "/go-diagrams")
}

// generateArchitectureDiagram shows the CLI, the exchange service and Spotify
func generateArchitectureDiagram() error {
	d, err := diagram.New(diagram.Filename("architecture"), diagram.Label("moodlist Architecture"), diagram.Direction("LR"))
	if err != nil {
		return fmt.Errorf("failed to create diagram: %w", err)
	}

	cli := programming.Language.Go(diagram.NodeLabel("moodlist CLI"))
	exchange := gcp.Compute.ComputeEngine(diagram.NodeLabel("Token Exchange\n/api/spotify-token\n/api/refresh-token"))
	accounts := gcp.Network.Dns(diagram.NodeLabel("accounts.spotify.com"))
	webAPI := gcp.Network.LoadBalancing(diagram.NodeLabel("api.spotify.com/v1"))
	store := gcp.Database.Sql(diagram.NodeLabel("Credential Store\nfile / sqlite"))

	d.Connect(cli, exchange, diagram.Forward()).
		Connect(exchange, accounts, diagram.Forward()).
		Connect(cli, webAPI, diagram.Forward()).
		Connect(cli, store, diagram.Bidirectional())

	if err := d.Render(); err != nil {
		return fmt.Errorf("failed to render diagram: %w", err)
	}
	return nil
}

// generateComponentDiagram shows how a playlist request flows through the packages
func generateComponentDiagram() error {
	d, err := diagram.New(diagram.Filename("components"), diagram.Label("moodlist Components"), diagram.Direction("TB"))
	if err != nil {
		return fmt.Errorf("failed to create diagram: %w", err)
	}

	cli := programming.Language.Go(diagram.NodeLabel("cmd/moodlist"))
	assembler := programming.Language.Go(diagram.NodeLabel("Playlist Assembler"))
	dedup := programming.Language.Go(diagram.NodeLabel("Duplicate Detector"))
	moodFilter := programming.Language.Go(diagram.NodeLabel("Mood Filter"))
	catalog := programming.Language.Go(diagram.NodeLabel("Spotify Service"))
	client := programming.Language.Go(diagram.NodeLabel("Authenticated Fetch Client"))
	tokens := programming.Language.Go(diagram.NodeLabel("Token Manager"))
	store := gcp.Database.Sql(diagram.NodeLabel("Credential Store"))
	webAPI := gcp.Network.LoadBalancing(diagram.NodeLabel("Spotify Web API"))

	core := diagram.NewGroup("core").Label("Playlist Core").Add(assembler, dedup, moodFilter)
	access := diagram.NewGroup("access").Label("Catalog Access").Add(catalog, client, tokens)

	d.Connect(cli, assembler, diagram.Forward()).
		Connect(assembler, dedup, diagram.Forward()).
		Connect(assembler, moodFilter, diagram.Forward()).
		Connect(assembler, catalog, diagram.Forward()).
		Connect(moodFilter, catalog, diagram.Forward()).
		Connect(catalog, client, diagram.Forward()).
		Connect(client, tokens, diagram.Forward()).
		Connect(tokens, store, diagram.Bidirectional()).
		Connect(client, webAPI, diagram.Forward()).
		Group(core).
		Group(access)

	if err := d.Render(); err != nil {
		return fmt.Errorf("failed to render diagram: %w", err)
	}
	return nil
}
