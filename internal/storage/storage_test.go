package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("objectURL", func() {
	It("uses the virtual-hosted AWS form by default", func() {
		cfg := internal.StorageConfig{Bucket: "docs", Region: "us-east-1"}
		Expect(objectURL(cfg, "trials/1/a b.pdf")).To(Equal("https://docs.s3.us-east-1.amazonaws.com/trials/1/a%20b.pdf"))
	})

	It("puts the bucket in the path for path-style endpoints", func() {
		cfg := internal.StorageConfig{Bucket: "docs", Endpoint: "http://localhost:9000/", UsePathStyle: true}
		Expect(objectURL(cfg, "trials/1/x.pdf")).To(Equal("http://localhost:9000/docs/trials/1/x.pdf"))
	})

	It("prefixes the host for virtual-hosted custom endpoints", func() {
		cfg := internal.StorageConfig{Bucket: "docs", Endpoint: "https://storage.example.com"}
		Expect(objectURL(cfg, "k.pdf")).To(Equal("https://docs.storage.example.com/k.pdf"))
	})
})

var _ = Describe("MemoryStore", func() {
	It("stores objects and presigns only existing keys", func() {
		store := NewMemoryStore("memory://bucket")
		ctx := context.Background()

		Expect(store.Put(ctx, "trials/1/doc.pdf", "application/pdf", strings.NewReader("%PDF"), 4)).To(Succeed())

		data, contentType, ok := store.Get("trials/1/doc.pdf")
		Expect(ok).To(BeTrue())
		Expect(string(data)).To(Equal("%PDF"))
		Expect(contentType).To(Equal("application/pdf"))

		url, err := store.PresignGet(ctx, "trials/1/doc.pdf", time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("memory://bucket/trials/1/doc.pdf?expires="))

		_, err = store.PresignGet(ctx, "missing", time.Minute)
		Expect(err).To(HaveOccurred())
	})

	It("deletes objects and ignores missing keys", func() {
		store := NewMemoryStore("memory://bucket")
		ctx := context.Background()

		Expect(store.Put(ctx, "trials/1/doc.pdf", "application/pdf", strings.NewReader("%PDF"), 4)).To(Succeed())
		Expect(store.Delete(ctx, "trials/1/doc.pdf")).To(Succeed())
		_, _, ok := store.Get("trials/1/doc.pdf")
		Expect(ok).To(BeFalse())

		Expect(store.Delete(ctx, "trials/1/doc.pdf")).To(Succeed())
	})
})
