package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/config"
	"github.com/powkey/powkey/internal/digest"
	"github.com/powkey/powkey/internal/lock"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Talk to the proof-of-work lock device",
}

var deviceAddr string

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.PersistentFlags().StringVarP(&deviceAddr, "address", "a", "", "device address host:port (default from config)")

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether the device is locked",
		RunE: withDevice(func(c *lock.Client, args []string) error {
			locked, err := c.Status()
			if err != nil {
				return describeDeviceError(err)
			}
			if locked {
				fmt.Println("Locked")
			} else {
				fmt.Println("Unlocked")
			}
			return nil
		}),
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Open an unlocked device",
		RunE: withDevice(func(c *lock.Client, args []string) error {
			if err := c.Open(); err != nil {
				return describeDeviceError(err)
			}
			fmt.Println("Lock opened")
			return nil
		}),
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "base",
		Short: "Fetch the base string of a locked device",
		RunE: withDevice(func(c *lock.Client, args []string) error {
			base, err := c.Base()
			if err != nil {
				return describeDeviceError(err)
			}
			fmt.Println(base)
			return nil
		}),
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "target",
		Short: "Fetch the target of a locked device",
		RunE: withDevice(func(c *lock.Client, args []string) error {
			tgt, err := c.Target()
			if err != nil {
				return describeDeviceError(err)
			}
			fmt.Println(tgt)
			return nil
		}),
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "lock <target-hex>",
		Short: "Lock the device under a target hash",
		Args:  cobra.ExactArgs(1),
		RunE: withDevice(func(c *lock.Client, args []string) error {
			tgt, err := digest.ParseHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid target: %w", err)
			}
			base, err := c.Lock(tgt)
			if err != nil {
				return describeDeviceError(err)
			}
			fmt.Printf("Locked. Base string is:\n%s\n", base)
			return nil
		}),
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "unlock <nonce>",
		Short: "Present a solution nonce to the device",
		Args:  cobra.ExactArgs(1),
		RunE: withDevice(func(c *lock.Client, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid nonce %q: %w", args[0], err)
			}
			if err := c.Unlock(digest.Nonce(n)); err != nil {
				return describeDeviceError(err)
			}
			fmt.Println("Unlocked")
			return nil
		}),
	})
}

// withDevice dials the configured device and hands the connection to fn.
func withDevice(fn func(*lock.Client, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		addr := deviceAddr
		if addr == "" {
			addr = cfg.Device.Address
		}

		client, err := lock.Dial(logger.Named("device"), addr, lockConfig(cfg.Device))
		if err != nil {
			return describeDeviceError(err)
		}
		defer client.Close()

		logger.Debug("device session opened", zap.String("addr", addr))
		return fn(client, args)
	}
}

func lockConfig(d config.DeviceConfig) lock.Config {
	return lock.Config{
		DialTimeout:  d.DialTimeout.Std(),
		ReadTimeout:  d.ReadTimeout.Std(),
		WriteTimeout: d.WriteTimeout.Std(),
	}
}

// describeDeviceError keeps the sentinel chain intact but prefixes the
// human explanation the lock's operators expect.
func describeDeviceError(err error) error {
	switch {
	case errors.Is(err, lock.ErrConnection):
		return fmt.Errorf("error connecting with lock: %w", err)
	case errors.Is(err, lock.ErrUnsuccessful):
		return fmt.Errorf("unsuccessful: hash of base and nonce not less than target: %w", err)
	case errors.Is(err, lock.ErrLockedPrecondition):
		return fmt.Errorf("the lock is locked: %w", err)
	case errors.Is(err, lock.ErrUnlockedPrecondition):
		return fmt.Errorf("the lock is unlocked: %w", err)
	default:
		return err
	}
}
