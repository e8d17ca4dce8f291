package app

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"
)

type demoGroup struct {
	Name  string `mapstructure:"name"`
	Count int    `mapstructure:"count"`
}

type demoOptions struct {
	Demo *demoGroup `mapstructure:"demo"`

	completed bool
}

func (o *demoOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("demo")
	fs.StringVar(&o.Demo.Name, "demo.name", o.Demo.Name, "Name.")
	fs.IntVar(&o.Demo.Count, "demo.count", o.Demo.Count, "Count.")
	return fss
}

func (o *demoOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *demoOptions) Validate() error {
	if o.Demo.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func newDemoApp(opts *demoOptions, ran *bool) *App {
	a := NewApp("demo-app", "Demo",
		WithOptions(opts),
		WithNoConfig(),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			*ran = true
			return nil
		}),
	)
	a.Command().SetOut(io.Discard)
	a.Command().SetErr(io.Discard)
	return a
}

func TestRunBindsFlags(t *testing.T) {
	opts := &demoOptions{Demo: &demoGroup{Name: "default", Count: 1}}
	var ran bool
	a := newDemoApp(opts, &ran)

	a.Command().SetArgs([]string{"--demo.name=garage", "--demo.count=3"})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran || !opts.completed {
		t.Errorf("ran = %v, completed = %v", ran, opts.completed)
	}
	if opts.Demo.Name != "garage" || opts.Demo.Count != 3 {
		t.Errorf("options = %+v", opts.Demo)
	}
}

func TestRunValidationFails(t *testing.T) {
	opts := &demoOptions{Demo: &demoGroup{}}
	var ran bool
	a := newDemoApp(opts, &ran)

	a.Command().SetArgs([]string{"--demo.count=-1"})
	if err := a.Command().Execute(); err == nil {
		t.Error("expected a validation error")
	}
	if ran {
		t.Error("run must not be called when validation fails")
	}
}

func TestDefaultValidArgs(t *testing.T) {
	var a App
	WithDefaultValidArgs()(&a)

	cmd := &cobra.Command{Use: "demo"}
	if err := a.args(cmd, nil); err != nil {
		t.Errorf("no args: %v", err)
	}
	if err := a.args(cmd, []string{"extra"}); err == nil {
		t.Error("expected an error for a positional argument")
	}
}

func TestEnvPrefix(t *testing.T) {
	for name, want := range map[string]string{
		"garaged":   "GARAGE",
		"garagectl": "GARAGE",
		"demo-app":  "DEMO",
	} {
		if got := envPrefix(name); got != want {
			t.Errorf("envPrefix(%q) = %q, want %q", name, got, want)
		}
	}
}
