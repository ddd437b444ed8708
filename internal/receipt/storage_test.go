package receipt

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		info, err := os.Stat(filepath.Join(tmpDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("saves, reads and deletes a file", func() {
		name, err := storage.Save("id-1_receipt.jpg", []byte("jpeg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("id-1_receipt.jpg"))

		data, err := storage.Get(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("jpeg")))

		Expect(storage.Delete(name)).To(Succeed())
		_, err = storage.Get(name)
		Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
	})

	It("refuses names that leave the base directory", func() {
		_, err := storage.Save("../escape.jpg", []byte("x"))
		Expect(err).To(HaveOccurred())
		_, err = os.Stat(filepath.Join(tmpDir, "escape.jpg"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("reports deleting a missing file as not found", func() {
		Expect(errors.Is(storage.Delete("missing.pdf"), ErrNotFound)).To(BeTrue())
	})
})

var _ = DescribeTable("sanitizeFilename",
	func(in, expected string) {
		Expect(sanitizeFilename(in)).To(Equal(expected))
	},
	Entry("keeps a clean name", "receipt.pdf", "receipt.pdf"),
	Entry("strips punctuation and collapses spaces", "IMG  0001 (copy)!.JPG", "IMG 0001 copy.jpg"),
	Entry("drops directories", "../../etc/passwd.png", "passwd.png"),
	Entry("falls back to a default base", "###.png", "document.png"),
	Entry("truncates long names", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.png", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.png"),
)
