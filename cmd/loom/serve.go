package main

import (
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/abiiranathan/rex"

	"loom/compiler"
	"loom/config"
	"loom/runtime"
)

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	tag := fs.String("tag", "", "Custom element tag when serving a single file")
	addr := fs.String("addr", "", "Listen address (default from project, else localhost:8080)")

	input, err := parseArgs(fs, args)
	if err != nil {
		return 2
	}

	reg := runtime.NewRegistry()
	p := &preview{registry: reg, artifacts: map[string]*compiler.Artifact{}}
	listen := "localhost:8080"

	switch {
	case common.config != "":
		proj, err := config.Load(common.config)
		if err != nil {
			log.Print(err)
			return 1
		}
		common.initTrace(proj)
		listen = proj.Serve.Addr
		for _, c := range proj.Components {
			opts := common.options(proj.Options(c), proj)
			if err := p.add(proj.Path(c.Input), opts); err != nil {
				log.Print(err)
				return 1
			}
		}
	case input != "" && *tag != "":
		common.initTrace(nil)
		if err := p.add(input, common.options(compiler.Options{Tag: *tag}, nil)); err != nil {
			log.Print(err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %s serve [--config loom.yaml | <input> --tag <tag>] [--addr host:port]\n", appName)
		return 2
	}
	if *addr != "" {
		listen = *addr
	}

	log.Printf("Serving %s on http://%s", strings.Join(reg.Tags(), ", "), listen)
	if err := http.ListenAndServe(listen, p.router()); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}

// preview renders compiled components on request
type preview struct {
	registry  *runtime.Registry
	artifacts map[string]*compiler.Artifact
}

func (p *preview) add(input string, opts compiler.Options) error {
	opts.Mode = compiler.ModeRegister
	opts.Registry = p.registry
	art, err := compileFile(input, opts)
	if err != nil {
		return err
	}
	p.artifacts[art.Tag] = art
	return nil
}

func (p *preview) router() *rex.Router {
	r := rex.NewRouter()
	r.GET("/", p.index)
	r.GET("/c/{tag}", p.render)
	r.GET("/c/{tag}/artifact", p.artifact)
	return r
}

func (p *preview) index(c *rex.Context) error {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><title>loom</title></head><body><ul>")
	for _, tag := range p.registry.Tags() {
		fmt.Fprintf(&b, `<li><a href="/c/%s">&lt;%s&gt;</a> (<a href="/c/%s/artifact">artifact</a>)</li>`, tag, tag, tag)
	}
	b.WriteString("</ul></body></html>")
	return c.HTML(b.String())
}

// render mounts a fresh instance; query parameters are applied as host
// attributes, so ?user-name=ann sets the userName prop
func (p *preview) render(c *rex.Context) error {
	tag := c.Param("tag")
	comp, err := p.registry.Create(tag, nil, nil)
	if err != nil {
		return err
	}
	comp.Mount(nil, nil)
	defer comp.Destroy()

	if err := applyQuery(comp, c.Request.URL.Query()); err != nil {
		return err
	}

	page := fmt.Sprintf("<!doctype html><html><head><title>%s</title></head><body>%s</body></html>",
		html.EscapeString(tag), comp.HTML())
	return c.HTML(page)
}

func applyQuery(comp *runtime.Component, q url.Values) error {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := comp.SetAttribute(name, q.Get(name)); err != nil {
			return err
		}
	}
	return nil
}

type artifactInfo struct {
	Tag      string   `json:"tag"`
	Hash     string   `json:"hash"`
	Keys     []string `json:"keys"`
	CSS      string   `json:"css,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Code     string   `json:"code"`
}

func (p *preview) artifact(c *rex.Context) error {
	art, ok := p.artifacts[c.Param("tag")]
	if !ok {
		return fmt.Errorf("unknown component %q", c.Param("tag"))
	}
	return c.JSON(artifactInfo{
		Tag:      art.Tag,
		Hash:     art.Hash,
		Keys:     art.Definition.Keys,
		CSS:      art.CSS,
		Warnings: art.Warnings,
		Code:     art.Code,
	})
}
