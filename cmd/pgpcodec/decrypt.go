package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/term"

	"github.com/letsencrypt-labs/pgpcodec/openpgp"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/packet"
)

func newDecryptCommand() *cobra.Command {
	var keyFile, outFile string
	var passphraseFromStdin bool

	cmd := &cobra.Command{
		Use:   "decrypt <file>",
		Short: "Decrypt an ASCII-armored OpenPGP message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := readPrivateKey(keyFile)
			if err != nil {
				return fmt.Errorf("reading private key: %w", err)
			}

			if priv.Encrypted {
				passphrase, err := readPassphrase(passphraseFromStdin)
				if err != nil {
					return fmt.Errorf("reading passphrase: %w", err)
				}
				if err := priv.Decrypt(passphrase); err != nil {
					return fmt.Errorf("unlocking private key: %w", err)
				}
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}
			source := io.Reader(bytes.NewReader(data))
			if block, err := armor.Decode(bytes.NewReader(data)); err == nil {
				source = block.Body
			}

			logrus.WithField("key id", fmt.Sprintf("%016X", priv.PublicKey.KeyId)).Debug("decrypting message")
			msg, err := openpgp.ReadMessage(source, priv)
			if err != nil {
				return fmt.Errorf("decrypting message: %w", err)
			}

			out, closeOut, err := openOutput(outFile)
			if err != nil {
				return err
			}
			defer closeOut()
			_, err = out.Write(msg.Body)
			return err
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "path to the recipient's private key packet")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&passphraseFromStdin, "passphrase-stdin", false, "read the private key passphrase from stdin instead of the terminal")
	cmd.MarkFlagRequired("key")
	return cmd
}

func readPrivateKey(path string) (*packet.PrivateKey, error) {
	raw, err := readPacketBody(path, packet.TagPrivateKey, packet.TagPrivateSubkey)
	if err != nil {
		return nil, err
	}
	priv := new(packet.PrivateKey)
	if err := priv.Parse(raw); err != nil {
		return nil, err
	}
	return priv, nil
}

func readPassphrase(fromStdin bool) ([]byte, error) {
	if fromStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		return []byte(trimNewline(line)), nil
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	return pass, err
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
