// fitctl 是自动排版的离线工具：在命令行中对 JSON 文档运行排版搜索或导出 PDF。
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fitctl",
	Short:         "Offline tools for one-page resume fitting",
	Long:          "fitctl runs the density search against a resume document and renders PDFs without the API or the worker.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
