// Package storagetest holds the behaviour every storage.Driver must share,
// written as ginkgo specs that driver packages mount in their suites.
package storagetest

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/tree"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

// DescribeDriver registers the shared driver specs. open is called before
// each test and must return an empty driver.
func DescribeDriver(open func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = open()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	It("returns nil for a project that was never saved", func() {
		nodes, err := driver.Load(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(BeNil())
	})

	It("round trips a tree in saved order", func() {
		t := testutils.NewTripTree()
		t.D.Metadata.IsPinned = true

		Expect(driver.Save(ctx, "trip", t.Nodes)).To(Succeed())

		loaded, err := driver.Load(ctx, "trip")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(HaveLen(len(t.Nodes)))
		for i, n := range loaded {
			want := t.Nodes[i]
			Expect(n.ID).To(Equal(want.ID))
			Expect(n.ParentID).To(Equal(want.ParentID))
			Expect(n.Children).To(Equal(want.Children))
			Expect(n.Role).To(Equal(want.Role))
			Expect(n.Content).To(Equal(want.Content))
			Expect(n.Metadata.Timestamp).To(BeTemporally("==", want.Metadata.Timestamp))
			Expect(n.Metadata.ModelUsed).To(Equal(want.Metadata.ModelUsed))
			Expect(n.Metadata.TokenCount).To(Equal(want.Metadata.TokenCount))
			Expect(n.Metadata.IsPinned).To(Equal(want.Metadata.IsPinned))
		}

		Expect(tree.NewStore(loaded...).Validate()).To(BeEmpty())
	})

	It("saves an empty project", func() {
		Expect(driver.Save(ctx, "empty", nil)).To(Succeed())

		loaded, err := driver.Load(ctx, "empty")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).NotTo(BeNil())
		Expect(loaded).To(BeEmpty())
	})

	It("replaces the previous save", func() {
		t := testutils.NewTripTree()
		Expect(driver.Save(ctx, "trip", t.Nodes)).To(Succeed())

		b := testutils.NewBuilder()
		only := b.Add(nil, tree.RoleUser, "fresh start")
		Expect(driver.Save(ctx, "trip", b.Nodes)).To(Succeed())

		loaded, err := driver.Load(ctx, "trip")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(HaveLen(1))
		Expect(loaded[0].ID).To(Equal(only.ID))
	})

	It("keeps projects apart", func() {
		one := testutils.NewTripTree()
		two := testutils.NewTripTree()
		Expect(driver.Save(ctx, "b-project", one.Nodes)).To(Succeed())
		Expect(driver.Save(ctx, "a-project", two.Nodes[:1])).To(Succeed())

		names, err := driver.Projects(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"a-project", "b-project"}))

		loaded, err := driver.Load(ctx, "a-project")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(HaveLen(1))
		Expect(loaded[0].ID).To(Equal(two.R.ID))
	})

	It("does not repair structurally broken trees", func() {
		b := testutils.NewBuilder()
		r := b.Add(nil, tree.RoleUser, "root")
		b.Add(r, tree.RoleAssistant, "reply")
		r.Children = nil

		Expect(driver.Save(ctx, "broken", b.Nodes)).To(Succeed())
		loaded, err := driver.Load(ctx, "broken")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded[0].Children).To(BeEmpty())
	})

	It("rejects an empty project name", func() {
		_, err := driver.Load(ctx, "")
		var empty storage.ErrEmptyProject
		Expect(errors.As(err, &empty)).To(BeTrue())
		Expect(driver.Save(ctx, "", nil)).To(MatchError(storage.ErrEmptyProject{}))
	})
}
