// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"fmt"
	stdio "io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend/terminal"
	"github.com/ezrec/chip8/frontend/window"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/translate"
)

// isSource is true for files that should be assembled before running.
func isSource(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".asm", ".s", ".c8s":
		return true
	}
	return false
}

// assemble a source file with the emulator's defines.
func assemble(emu *emulator.Emulator, name string) (prog *cpu.Program, err error) {
	inf, err := os.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err = emu.Assemble(inf)

	return
}

func main() {
	var verbose bool
	var lang string

	rootCmd := &cobra.Command{
		Use:          "chip8",
		Short:        "CHIP-8 interpreter, assembler and disassembler",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(lang) == 0 {
				return nil
			}
			return translate.SetLanguage(lang)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "Message language (default from the environment)")

	// run command
	var scale int
	var delay time.Duration
	var frontend string
	var layout string
	var seed uint64

	runCmd := &cobra.Command{
		Use:   "run [rom or source]",
		Short: "Run a ROM image, assembling it first if it is source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := args[0]

			keymap, err := io.ParseKeymap(layout)
			if err != nil {
				return
			}

			emu := emulator.NewEmulator()
			emu.Verbose = verbose
			emu.CycleDelay = delay
			if cmd.Flags().Changed("seed") {
				emu.Cpu.Random = cpu.NewRandom(seed)
			}

			if isSource(name) {
				var prog *cpu.Program
				prog, err = assemble(emu, name)
				if err != nil {
					return fmt.Errorf("%v: %w", name, err)
				}
				err = emu.LoadProgram(prog)
			} else {
				var inf *os.File
				inf, err = os.Open(name)
				if err != nil {
					return
				}
				defer inf.Close()
				err = emu.Load(inf)
				emu.Rom.Name = filepath.Base(name)
			}
			if err != nil {
				return fmt.Errorf("%v: %w", name, err)
			}

			switch frontend {
			case "window":
				win := window.NewWindow(emu, keymap)
				win.Verbose = verbose
				err = win.Run("CHIP-8: "+filepath.Base(name), scale)
			case "terminal":
				tm := terminal.NewTerminal(os.Stdin, os.Stdout, keymap)
				tm.Verbose = verbose
				err = tm.Start()
				if err != nil {
					return
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				err = emu.Run(ctx, tm)
				stop()
				serr := tm.Stop()
				if err == nil {
					err = serr
				}
			default:
				err = fmt.Errorf("unknown frontend %q", frontend)
			}

			if verbose {
				log.Printf("chip8: %v ticks", emu.Cpu.Ticks)
			}

			return
		},
	}
	runCmd.Flags().IntVar(&scale, "scale", window.DEFAULT_SCALE, "Window pixels per display cell")
	runCmd.Flags().DurationVar(&delay, "delay", emulator.DEFAULT_CYCLE_DELAY, "Time between instructions")
	runCmd.Flags().StringVar(&frontend, "frontend", "window", "Frontend: window or terminal")
	runCmd.Flags().StringVar(&layout, "keymap", io.DEFAULT_LAYOUT, "Keys for keypad 0 through F")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default from the clock)")

	// asm command
	var output string

	asmCmd := &cobra.Command{
		Use:   "asm [source]",
		Short: "Assemble a source file into a ROM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu := emulator.NewEmulator()
			emu.Verbose = verbose

			prog, err := assemble(emu, args[0])
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			var ouf stdio.Writer = os.Stdout
			if output != "-" {
				var file *os.File
				file, err = os.Create(output)
				if err != nil {
					return
				}
				defer file.Close()
				ouf = file
			}

			_, err = ouf.Write(prog.Binary())

			return
		},
	}
	asmCmd.Flags().StringVarP(&output, "output", "o", "-", "ROM image output")

	// disasm command
	disasmCmd := &cobra.Command{
		Use:   "disasm [rom or source]",
		Short: "Disassemble a ROM image, or list an assembled source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := args[0]
			out := cmd.OutOrStdout()

			if isSource(name) {
				emu := emulator.NewEmulator()
				emu.Verbose = verbose

				var prog *cpu.Program
				prog, err = assemble(emu, name)
				if err != nil {
					return fmt.Errorf("%v: %w", name, err)
				}

				for addr, code := range prog.Codes() {
					fmt.Fprintf(out, "%03X: %04X  %-16v ; %v:%v\n", addr, uint16(code), code, filepath.Base(name), prog.LineNo(addr))
				}
				return
			}

			inf, err := os.Open(name)
			if err != nil {
				return
			}
			defer inf.Close()

			var rom io.Rom
			_, err = rom.ReadFrom(inf)
			if err != nil {
				return fmt.Errorf("%v: %w", name, err)
			}

			for addr, code := range cpu.Disassemble(cpu.PROGRAM_START, rom.Data) {
				fmt.Fprintf(out, "%03X: %04X  %v\n", addr, uint16(code), code)
			}

			return
		},
	}

	rootCmd.AddCommand(runCmd, asmCmd, disasmCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}
