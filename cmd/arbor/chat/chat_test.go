package chatcmder_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/arbor/cmd/arbor/chat"
	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/dotdir"
	"github.com/papercomputeco/arbor/pkg/storage/sqlite"
	"github.com/papercomputeco/arbor/pkg/tree"
)

var _ = Describe("chat", func() {
	var dir string

	chat := func(input string) (string, string) {
		root := &cobra.Command{Use: "arbor", SilenceUsage: true}
		workspace.AddPersistentFlags(root)
		root.AddCommand(chatcmder.NewChatCmd())

		var out, errOut bytes.Buffer
		root.SetIn(strings.NewReader(input))
		root.SetOut(&out)
		root.SetErr(&errOut)
		root.SetArgs([]string{"chat", "--provider", "offline", "--config-dir", dir})

		Expect(root.ExecuteContext(context.Background())).To(Succeed())
		return out.String(), errOut.String()
	}

	load := func() []*tree.Node {
		ctx := context.Background()
		d, err := sqlite.NewDriver(ctx, filepath.Join(dir, "arbor.db"))
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		nodes, err := d.Load(ctx, workspace.DefaultProject)
		Expect(err).NotTo(HaveOccurred())
		return nodes
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("starts a new conversation and stores both turns", func() {
		out, _ := chat("hello there\n/exit\n")
		Expect(out).To(ContainSubstring("New conversation"))
		Expect(out).To(ContainSubstring("(offline)"))

		nodes := load()
		Expect(nodes).To(HaveLen(2))
		Expect(nodes[0].Role).To(Equal(tree.RoleUser))
		Expect(nodes[0].Content).To(Equal("hello there"))
		Expect(nodes[1].Role).To(Equal(tree.RoleAssistant))
		Expect(nodes[1].Parent()).To(Equal(nodes[0].ID))
		Expect(nodes[1].Metadata.ModelUsed).To(Equal("offline"))

		cursors, err := dotdir.NewManager().LoadCursors(workspace.DefaultProject, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cursors.ActiveID).To(Equal(nodes[1].ID))
	})

	It("quits at end of input", func() {
		chat("hello\n")
		Expect(load()).To(HaveLen(2))
	})

	It("resumes at the saved cursor", func() {
		chat("hello\n/exit\n")
		out, _ := chat("/exit\n")
		Expect(out).To(ContainSubstring("Resuming at"))
		Expect(out).To(ContainSubstring("2 nodes, isolated memory"))
	})

	It("runs slash commands against the tree", func() {
		chat("hello\n")
		rootID := load()[0].ID

		out, _ := chat(strings.Join([]string{
			"/tree",
			"/pin " + rootID[:8],
			"/checkout " + rootID,
			"/context",
			"/branch " + rootID[:8] + " a different idea",
			"/exit",
		}, "\n"))

		Expect(out).To(ContainSubstring("Pinned"))
		Expect(out).To(ContainSubstring("Checked out"))
		Expect(out).To(ContainSubstring("hierarchical memory"))

		nodes := load()
		Expect(nodes).To(HaveLen(4))
		Expect(nodes[0].Metadata.IsPinned).To(BeTrue())
		Expect(nodes[0].Children).To(HaveLen(2))
		Expect(nodes[2].Content).To(Equal("a different idea"))
		Expect(nodes[3].Parent()).To(Equal(nodes[2].ID))
	})

	It("deletes a subtree", func() {
		chat("hello\n")
		rootID := load()[0].ID

		out, _ := chat("/delete " + rootID + "\n/exit\n")
		Expect(out).To(ContainSubstring("Deleted 2 nodes at"))
		Expect(load()).To(BeEmpty())
	})

	It("reports bad commands and keeps going", func() {
		_, errOut := chat("/bogus\n/branch\n/checkout nope\n/exit\n")
		Expect(errOut).To(ContainSubstring("unknown command /bogus"))
		Expect(errOut).To(ContainSubstring("usage: /branch <id> <text>"))
		Expect(errOut).To(ContainSubstring("node not found"))
	})
})
