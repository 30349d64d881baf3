package heatmap_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHeatmap(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Heatmap Extension Suite")
}
