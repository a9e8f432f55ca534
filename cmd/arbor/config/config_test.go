package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/arbor/cmd/arbor/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "arbor-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// A local .arbor dir takes precedence over ~/.arbor.
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".arbor"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "provider.name", "anthropic")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".arbor", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("provider.name"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "provider.name")).To(HaveOccurred())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "context.token_budget", "not-a-number")).To(HaveOccurred())
		})

		It("rejects unknown storage drivers", func() {
			Expect(run("set", "storage.driver", "mongodb")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "provider.model", "claude-haiku-4-5")).To(Succeed())

			out.Reset()
			Expect(run("get", "provider.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("claude-haiku-4-5"))
		})

		It("reports the default for an unset key", func() {
			Expect(run("get", "storage.driver")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sqlite"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("storage.driver"))
		})

		It("lists every key after a value was set", func() {
			Expect(run("set", "api.listen", ":9000")).To(Succeed())

			out.Reset()
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`api.listen`))
			Expect(out.String()).To(ContainSubstring(`":9000"`))
			Expect(out.String()).To(ContainSubstring("context.token_budget"))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
