package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

const keygenBytes = 32

// keygenCmd 生成一个随机密钥，可用作 FIRMVAULT_AUTH_ADMIN_API_KEY 或 JWT secret.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "generate a random secret for bootstrap configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		buf := make([]byte, keygenBytes)
		if _, err := rand.Read(buf); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))

		return nil
	},
}

// registerKeygenCommand 注册密钥生成命令.
func registerKeygenCommand() {
	rootCmd.AddCommand(keygenCmd)
}
