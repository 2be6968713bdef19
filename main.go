package main

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	awsivy "github.com/stephenh/aws-ivy/lib"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := cli.NewApp()
	app.Name = "aws-ivy"
	app.Usage = "S3 as an artifact repository"
	app.Version = "0.0.1"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Value:  "",
			Usage:  "config file (default ~/.aws-ivy/config.yml)",
			EnvVar: "AWS_IVY_CONFIG",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "get",
			Usage:     "Download artifacts",
			ArgsUsage: "<uri>...",
			Action:    get,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir, d",
					Value: ".",
					Usage: "Directory to download into",
				},
			},
		},
		{
			Name:      "put",
			Usage:     "Upload an artifact",
			ArgsUsage: "<file> <uri>",
			Action:    put,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "acl",
					Value: "",
					Usage: "PRIVATE, PUBLIC_READ, PUBLIC_READ_WRITE or AUTHENTICATED_READ",
				},
			},
		},
		{
			Name:      "ls",
			Usage:     "List artifacts under a prefix",
			ArgsUsage: "<uri>",
			Action:    ls,
		},
		{
			Name:      "stat",
			Usage:     "Show artifact metadata",
			ArgsUsage: "<uri>",
			Action:    stat,
		},
		{
			Name:   "config",
			Usage:  "Update aws-ivy configuration",
			Action: config,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "region",
					Value: "",
					Usage: "S3 region name",
				},
				cli.StringFlag{
					Name:  "endpoint",
					Value: "",
					Usage: "S3-compatible endpoint",
				},
				cli.StringFlag{
					Name:  "accesskey",
					Value: "",
					Usage: "S3 access key",
				},
				cli.StringFlag{
					Name:  "secretkey",
					Value: "",
					Usage: "S3 secret access key",
				},
				cli.StringFlag{
					Name:  "acl",
					Value: "",
					Usage: "ACL for uploads",
				},
				cli.StringFlag{
					Name:  "logging",
					Value: "",
					Usage: "logging mode",
				},
				cli.StringFlag{
					Name:  "aws-log-level",
					Value: "",
					Usage: "off, debug or debug_with_http_body",
				},
				cli.StringFlag{
					Name:  "metrics-file",
					Value: "",
					Usage: "write transfer metrics to this file after each command",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configDir(filename string) string {
	usr, err := user.Current()
	if err != nil {
		return filename
	}
	configPath := path.Join(usr.HomeDir, ".aws-ivy")

	info, err := os.Stat(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return filename
		}
		if err := os.Mkdir(configPath, 0700); err != nil {
			return filename
		}
	} else if !info.IsDir() {
		return filename
	}

	return path.Join(configPath, filename)
}

func configPath(c *cli.Context) string {
	if p := c.GlobalString("config"); p != "" {
		return p
	}
	return configDir("config.yml")
}

func readConfig(c *cli.Context) (*awsivy.Config, error) {
	config, err := awsivy.LoadConfig(configPath(c))
	if os.IsNotExist(errors.Cause(err)) {
		return awsivy.DefaultConfig(), nil
	}
	return config, err
}

func config(c *cli.Context) error {
	config, err := readConfig(c)
	if err != nil {
		return err
	}
	set := func(flag string, field *string) {
		if v := c.String(flag); v != "" {
			*field = v
		}
	}
	set("region", &config.Region)
	set("endpoint", &config.Endpoint)
	set("accesskey", &config.AccessKey)
	set("secretkey", &config.SecretKey)
	set("acl", &config.ACL)
	set("logging", &config.Logging)
	set("aws-log-level", &config.AWSLogLevel)
	set("metrics-file", &config.MetricsFile)

	if config.LogOutputPath == "" {
		config.LogOutputPath = configDir("aws-ivy.log")
	}
	return config.Save(configPath(c))
}

// session is everything one command needs: a resolver wired to logging and
// metrics. finish flushes both.
type session struct {
	resolver *awsivy.Resolver
	logger   *awsivy.Logger
	registry *prometheus.Registry
	config   *awsivy.Config
}

func newSession(c *cli.Context) (*session, error) {
	config, err := readConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := awsivy.NewLogger(config.LogOutputPath, config.Debug())
	if err != nil {
		return nil, err
	}
	if _, err := zap.RedirectStdLogAt(logger.Logger, zap.DebugLevel); err != nil {
		return nil, err
	}

	resolver, err := awsivy.NewResolver(config, logger)
	if err != nil {
		return nil, err
	}
	resolver.AddTransferListener(awsivy.NewLogListener(logger))

	registry := prometheus.NewRegistry()
	metrics, err := awsivy.NewMetricsListener(registry)
	if err != nil {
		return nil, err
	}
	resolver.AddTransferListener(metrics)

	return &session{
		resolver: resolver,
		logger:   logger,
		registry: registry,
		config:   config,
	}, nil
}

func (s *session) finish() {
	if s.config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(s.config.MetricsFile, s.registry); err != nil {
			s.logger.Error("write metrics", zap.Error(err))
		}
	}
	s.logger.Sync()
}

func get(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("specify at least one uri", 1)
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.finish()

	repo := sess.resolver.Repository()
	dir := c.String("dir")
	var g errgroup.Group
	for _, uri := range c.Args() {
		uri := uri
		g.Go(func() error {
			_, key, err := awsivy.ParseURI(uri)
			if err != nil {
				return err
			}
			dest := filepath.Join(dir, path.Base(key))
			if err := repo.Download(uri, dest); err != nil {
				return err
			}
			fmt.Println(dest)
			return nil
		})
	}
	return g.Wait()
}

func put(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: put <file> <uri>", 1)
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.finish()

	if acl := c.String("acl"); acl != "" {
		if err := sess.resolver.SetACL(acl); err != nil {
			return err
		}
	}
	return sess.resolver.Repository().Upload(c.Args().Get(0), c.Args().Get(1), true)
}

func ls(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: ls <uri>", 1)
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.finish()

	uris, err := sess.resolver.Repository().List(c.Args().First())
	if err != nil {
		return err
	}
	for _, uri := range uris {
		fmt.Println(uri)
	}
	return nil
}

func stat(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: stat <uri>", 1)
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.finish()

	r, err := sess.resolver.Repository().Resolve(c.Args().First())
	if err != nil {
		return err
	}
	if !r.Exists() {
		return cli.NewExitError(c.Args().First()+": not found", 2)
	}
	fmt.Printf("%s\t%d\t%s\n", r.Name(), r.ContentLength(), r.LastModified().Format(time.RFC3339))
	return nil
}
