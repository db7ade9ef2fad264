package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/exilefoundry/patchkit/internal/logger"
	"github.com/exilefoundry/patchkit/pkg/client"
	"github.com/exilefoundry/patchkit/pkg/config"
	"github.com/exilefoundry/patchkit/pkg/manifest"
	"github.com/exilefoundry/patchkit/pkg/tree"
)

const usageText = `patchkit - Path of Exile patch server client

Usage:
  patchkit [flags] <command> [args]

Commands:
  version                 Print the current game version
  urls                    Print the primary and CDN base URLs
  list <folder>           List a folder's entries (use "" or "/" for the root)
  tree [folder]           Recursively list a folder, honoring -depth
  download <path>         Download a file into the download directory
  dump <manifest.yaml>    Walk the full tree and save it as a manifest
  show <manifest.yaml>    Print a previously saved manifest

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	host := flag.String("host", "", "Patch server host (overrides config)")
	port := flag.Int("port", 0, "Patch server port (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	depth := flag.Int("depth", -1, "Recursion depth for tree and dump (negative means unlimited)")
	outFile := flag.String("out", "", "Destination file for download (default: under the download dir)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(*logLevel)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := args[0], args[1:]

	switch command {
	case "version":
		cmdVersion(cfg)
	case "urls":
		cmdURLs(cfg)
	case "list":
		cmdList(cfg, argOrRoot(args))
	case "tree":
		cmdTree(cfg, argOrRoot(args), *depth)
	case "download":
		if len(args) != 1 {
			log.Fatal("download requires exactly one path argument")
		}
		cmdDownload(cfg, args[0], *outFile)
	case "dump":
		if len(args) != 1 {
			log.Fatal("dump requires a manifest file argument")
		}
		cmdDump(cfg, args[0], *depth)
	case "show":
		if len(args) != 1 {
			log.Fatal("show requires a manifest file argument")
		}
		cmdShow(args[0])
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// argOrRoot normalizes the optional folder argument. The root folder can be
// spelled "", "/" or omitted.
func argOrRoot(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.Trim(args[0], "/")
}

// connect dials the patch server from configuration.
func connect(cfg *config.Config) *client.Endpoint {
	logger.Debug("Connecting to %s:%d", cfg.Server.Host, cfg.Server.Port)

	endpoint, err := client.Connect(cfg.Server.Host, cfg.Server.Port)
	if err != nil {
		log.Fatalf("Failed to connect to patch server: %v", err)
	}

	logger.Debug("Primary URL: %s", endpoint.PrimaryURL)
	logger.Debug("CDN URL: %s", endpoint.CDNURL)
	return endpoint
}

// openListing takes over the endpoint connection for listing queries.
func openListing(cfg *config.Config, endpoint *client.Endpoint) (*client.ListingClient, *tree.Node) {
	root := tree.NewRoot()
	lister, err := client.NewListingClient(endpoint, root, cfg.Server.ListTimeout)
	if err != nil {
		log.Fatalf("Failed to start listing session: %v", err)
	}
	return lister, root
}

// descend lists every folder from the root down to path and returns its node.
// The server requires parents to be listed before their children.
func descend(lister *client.ListingClient, root *tree.Node, path string) (*tree.Node, error) {
	if err := lister.ListFolders([]string{""}); err != nil {
		return nil, err
	}

	node := root
	if path == "" {
		return node, nil
	}

	prefix := ""
	for _, part := range strings.Split(path, "/") {
		child := node.Child(part)
		if child == nil {
			return nil, fmt.Errorf("no such entry: %s%s", prefix, part)
		}
		if child.Record.Kind == tree.KindFile {
			return child, nil
		}
		if err := lister.ListFolders([]string{child.Path()}); err != nil {
			return nil, err
		}
		node = child
		prefix += part + "/"
	}
	return node, nil
}

// listRecursive populates node's subtree level by level, batching all sibling
// folders of a level into a single query.
func listRecursive(lister *client.ListingClient, node *tree.Node, maxDepth int) error {
	frontier := []*tree.Node{node}
	for depth := 0; len(frontier) > 0 && (maxDepth < 0 || depth < maxDepth); depth++ {
		var folders []string
		var next []*tree.Node
		for _, dir := range frontier {
			for _, child := range dir.Children() {
				if child.Record.Kind == tree.KindDirectory {
					folders = append(folders, child.Path())
					next = append(next, child)
				}
			}
		}
		if len(folders) == 0 {
			break
		}
		logger.Debug("Listing %d folders at depth %d", len(folders), depth+1)
		if err := lister.ListFolders(folders); err != nil {
			return err
		}
		frontier = next
	}
	return nil
}

func cmdVersion(cfg *config.Config) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	fmt.Println(endpoint.Version())
}

func cmdURLs(cfg *config.Config) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	fmt.Printf("primary: %s\n", endpoint.PrimaryURL)
	fmt.Printf("cdn:     %s\n", endpoint.CDNURL)
}

func cmdList(cfg *config.Config, path string) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	lister, root := openListing(cfg, endpoint)
	defer lister.Close()

	node, err := descend(lister, root, path)
	if err != nil {
		log.Fatalf("Failed to list %q: %v", path, err)
	}

	for _, child := range node.Children() {
		printEntry(child)
	}
}

func cmdTree(cfg *config.Config, path string, maxDepth int) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	lister, root := openListing(cfg, endpoint)
	defer lister.Close()

	node, err := descend(lister, root, path)
	if err != nil {
		log.Fatalf("Failed to list %q: %v", path, err)
	}
	if err := listRecursive(lister, node, maxDepth); err != nil {
		log.Fatalf("Failed to walk %q: %v", path, err)
	}

	for child, depth := range node.Walk(maxDepth) {
		if child == node {
			continue
		}
		fmt.Print(strings.Repeat("  ", depth-1))
		printEntry(child)
	}
}

func cmdDownload(cfg *config.Config, path string, outFile string) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	lister, root := openListing(cfg, endpoint)

	node, err := descend(lister, root, path)
	if err != nil {
		log.Fatalf("Failed to resolve %q: %v", path, err)
	}
	if node.Record.Kind != tree.KindFile {
		log.Fatalf("%q is a folder, not a file", path)
	}
	// The endpoint connection is only needed for listing; downloads go over
	// HTTP against the URLs from the handshake.
	lister.Release()

	store, err := config.CreateContentCache(&cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to open content cache: %v", err)
	}

	opts := client.DownloadOptions{Hash: node.Record.Hash}
	if outFile != "" {
		opts.File = outFile
	} else {
		opts.Dir = cfg.Download.Dir
	}
	if store != nil {
		opts.Cache = store
		defer store.Close()
	}

	start := time.Now()
	if err := endpoint.Download(node.Path(), opts); err != nil {
		log.Fatalf("Failed to download %q: %v", path, err)
	}
	logger.Info("Downloaded %s (%d bytes) in %v", path, node.Record.Size, time.Since(start).Round(time.Millisecond))
}

func cmdDump(cfg *config.Config, manifestPath string, maxDepth int) {
	endpoint := connect(cfg)
	defer endpoint.Close()

	lister, root := openListing(cfg, endpoint)
	defer lister.Close()

	if err := lister.ListFolders([]string{""}); err != nil {
		log.Fatalf("Failed to list root: %v", err)
	}
	if err := listRecursive(lister, root, maxDepth); err != nil {
		log.Fatalf("Failed to walk tree: %v", err)
	}

	version := endpoint.Version()
	if err := manifest.SaveFile(manifestPath, root, version); err != nil {
		log.Fatalf("Failed to save manifest: %v", err)
	}
	logger.Info("Saved manifest for version %s to %s", version, manifestPath)
}

func cmdShow(manifestPath string) {
	root, version, err := manifest.LoadFile(manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	fmt.Printf("version: %s\n", version)
	for node, depth := range root.Walk(-1) {
		if node == root {
			continue
		}
		fmt.Print(strings.Repeat("  ", depth-1))
		printEntry(node)
	}
}

func printEntry(node *tree.Node) {
	switch node.Record.Kind {
	case tree.KindDirectory:
		fmt.Printf("%s/\n", node.Record.Name)
	default:
		fmt.Printf("%s\t%d\t%s\n", node.Record.Name, node.Record.Size, node.Record.Hash.Hex())
	}
}
