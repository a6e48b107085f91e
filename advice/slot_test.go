package advice

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type funcCallable struct {
	fn Func
}

func (c *funcCallable) Invoke(ctx context.Context, args ...any) (any, error) {
	return c.fn(ctx, args...)
}

var _ = Describe("Slot", func() {
	var (
		table *Table
		slot  *Slot
	)

	BeforeEach(func() {
		table = NewTable()
		slot = table.Define("math", "add",
			func(ctx context.Context, args ...any) (any, error) {
				sum := 0
				for _, a := range args {
					sum += a.(int)
				}
				return sum, nil
			})
	})

	It("should report its identity", func() {
		Expect(slot.Namespace()).To(Equal("math"))
		Expect(slot.Name()).To(Equal("add"))
		Expect(slot.String()).To(Equal("math/add"))
	})

	It("should dispatch to the bound function", func() {
		out, err := slot.Call(context.Background(), 1, 2, 3)

		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(6))
	})

	It("should fail with UnboundError when nothing is bound", func() {
		empty := table.Define("math", "mystery", nil)

		_, err := empty.Call(context.Background())

		var unbound *UnboundError
		Expect(errors.As(err, &unbound)).To(BeTrue())
		Expect(unbound.Namespace).To(Equal("math"))
		Expect(unbound.Name).To(Equal("mystery"))
	})

	It("should not mark an active target for plain calls", func() {
		var seen *Slot
		probe := table.Define("math", "probe",
			func(ctx context.Context, args ...any) (any, error) {
				seen = ActiveTarget(ctx)
				return nil, nil
			})

		_, err := probe.Call(context.Background())

		Expect(err).ToNot(HaveOccurred())
		Expect(seen).To(BeNil())
	})

	Context("with an installed callable", func() {
		var installed *funcCallable

		BeforeEach(func() {
			installed = &funcCallable{
				fn: func(ctx context.Context, args ...any) (any, error) {
					return "intercepted", nil
				},
			}
		})

		It("should dispatch to the installed callable", func() {
			slot.Install(installed)

			out, err := slot.Call(context.Background(), 1, 2)

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("intercepted"))
		})

		It("should return the previous callable on install", func() {
			prev := slot.Install(installed)

			Expect(prev).ToNot(BeNil())

			out, err := prev.Invoke(context.Background(), 1, 2, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(6))
		})

		It("should expose the slot as the active target", func() {
			var seen *Slot
			installed.fn = func(ctx context.Context, args ...any) (any, error) {
				seen = ActiveTarget(ctx)
				return nil, nil
			}
			slot.Install(installed)

			_, err := slot.Call(context.Background())

			Expect(err).ToNot(HaveOccurred())
			Expect(seen).To(BeIdenticalTo(slot))
		})

		It("should resolve to the installed callable", func() {
			slot.Install(installed)

			Expect(slot.Resolve()).To(BeIdenticalTo(installed))
		})

		It("should restore the bound function on remove", func() {
			slot.Install(installed)
			slot.Remove(installed)

			out, err := slot.Call(context.Background(), 2, 3)

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(5))
		})

		It("should panic when installing over an installed callable", func() {
			slot.Install(installed)

			Expect(func() {
				slot.Install(&funcCallable{fn: installed.fn})
			}).To(Panic())
		})

		It("should panic when removing a callable that is not installed",
			func() {
				slot.Install(installed)

				Expect(func() {
					slot.Remove(&funcCallable{fn: installed.fn})
				}).To(Panic())
			})
	})

	It("should resolve to the bound function when nothing is installed",
		func() {
			Expect(slot.Resolve()).ToNot(BeNil())
		})

	It("should resolve to nil when unbound", func() {
		empty := table.Define("math", "mystery", nil)

		Expect(empty.Resolve()).To(BeNil())
	})

	It("should panic when installing nil", func() {
		Expect(func() { slot.Install(nil) }).To(Panic())
	})

	It("should panic when installing a non-comparable callable", func() {
		Expect(func() {
			slot.Install(Func(
				func(ctx context.Context, args ...any) (any, error) {
					return nil, nil
				}))
		}).To(Panic())
	})

	It("should panic when removing with nothing installed", func() {
		Expect(func() {
			slot.Remove(&funcCallable{})
		}).To(Panic())
	})
})
