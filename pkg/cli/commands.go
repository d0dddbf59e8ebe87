package cli

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/andrew-torda/cifasm/pdb"
	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pdb/geom"
	"github.com/andrew-torda/cifasm/pkg/agents"
	"github.com/andrew-torda/cifasm/pkg/batch"
)

func newLoadCmd() *cobra.Command {
	var noAssembly bool
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Read a file and list its models and instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			opts, err := e.cfg.LoadOptions(e.log)
			if err != nil {
				return err
			}
			opts.Scene.NoAssembly = noAssembly
			sc, err := pdb.Load(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			printScene(e, sc)
			return nil
		},
	}
	cmd.Flags().StringP("assembly", "a", "", "assembly to build (default the first in the file)")
	cmd.Flags().StringP("group", "g", "", "chain or entity, for files without assemblies")
	cmd.Flags().BoolVar(&noAssembly, "no-assembly", false, "ignore assemblies in the file")
	return cmd
}

func printScene(e *env, sc *assembly.Scene) {
	w := e.out
	asm := sc.AssemblyID
	if asm == "" {
		asm = "none"
	}
	fmt.Fprintf(w, "%s atoms %d assembly %s models %d instances %d skipped %d\n",
		sc.Name, sc.Stats.Atoms, asm, len(sc.Models), len(sc.Instances), sc.Skipped)
	if sc.Stats.Truncated > 0 {
		fmt.Fprintf(w, "truncated identifiers %d\n", sc.Stats.Truncated)
	}
	for i, m := range sc.Models {
		n := 0
		for _, in := range sc.Instances {
			if in.Model == i {
				n++
			}
		}
		fmt.Fprintf(w, "model %d %s %q atoms %d instances %d\n", i, m.Kind, m.Name, len(m.Atoms), n)
	}
	for _, in := range sc.Instances {
		if in.Operator != "" {
			fmt.Fprintf(w, "instance %q operator %s\n", sc.Models[in.Model].Name, in.Operator)
		}
	}
	for _, p := range sc.Problems {
		fmt.Fprintln(w, "problem:", p)
	}
	if b := geom.SceneBounds(sc); !b.Empty() {
		s := b.Size()
		fmt.Fprintf(w, "size %.1f %.1f %.1f radius %.1f\n", s.X, s.Y, s.Z, geom.Radius(sc))
	}
}

func newFlatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flat FILE",
		Short: "Read only the coordinates of every atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			xyz, err := pdb.LoadFlat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b := geom.EmptyBox
			for _, x := range xyz {
				b.Add(x)
			}
			fmt.Fprintf(e.out, "%s points %d\n", args[0], len(xyz))
			if !b.Empty() {
				fmt.Fprintf(e.out, "min %.3f %.3f %.3f max %.3f %.3f %.3f\n",
					b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
			}
			return nil
		},
	}
}

func newOperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oper EXPR",
		Short: "Expand an oper_expression like (X0)(1-5) into operator names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oe, err := assembly.ParseOperExpr(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "groups %d operators %d\n", len(oe), oe.Count())
			for _, op := range oe.Combinations() {
				fmt.Fprintln(w, op.Name())
			}
			return nil
		},
	}
}

func newBatchCmd() *cobra.Command {
	var flat bool
	var cpuprof, types string
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Read many files at once and report on each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			opts, err := e.cfg.LoadOptions(e.log)
			if err != nil {
				return err
			}
			if cpuprof != "" {
				fprof, err := os.Create(cpuprof)
				if err != nil {
					return err
				}
				defer fprof.Close()
				if err := pprof.StartCPUProfile(fprof); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}
			res, err := batch.Load(cmd.Context(), args,
				batch.Options{Workers: e.cfg.Workers, Flat: flat, Load: opts})
			if err != nil {
				return err
			}
			tot, paths := batch.Sum(res)
			for _, p := range paths {
				r := res[p]
				switch {
				case r.Err != nil:
					fmt.Fprintf(e.out, "%s error %v\n", p, r.Err)
				case r.Scene != nil:
					fmt.Fprintf(e.out, "%s atoms %d models %d instances %d skipped %d\n",
						p, r.Scene.Stats.Atoms, len(r.Scene.Models), len(r.Scene.Instances), r.Scene.Skipped)
				default:
					fmt.Fprintf(e.out, "%s points %d\n", p, len(r.Xyz))
				}
			}
			if types != "" {
				if err := writeTypes(e, types, batch.AtomTypes(res)); err != nil {
					return err
				}
			}
			const mb = 1024 * 1024
			fmt.Fprintf(e.out, "Totals nbyte %.2f Mb nfiles %d failed %d atoms %d\n",
				float32(tot.NByte)/mb, tot.NFile, tot.NFail, tot.NAtom)
			if tot.NFail > 0 {
				return errors.Errorf("%d of %d files failed", tot.NFail, tot.NFile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "only read coordinates")
	cmd.Flags().IntP("workers", "w", 0, "files read at once (default from CPUs)")
	cmd.Flags().StringVar(&cpuprof, "cpuprofile", "", "write cpu profile to file")
	cmd.Flags().StringVar(&types, "types", "", "write element counts as csv to file, - for stdout")
	cmd.Flags().StringP("assembly", "a", "", "assembly to build in each file")
	cmd.Flags().StringP("group", "g", "", "chain or entity, for files without assemblies")
	return cmd
}

func writeTypes(e *env, fname string, pairs []batch.TypeCount) error {
	if fname == "-" {
		return batch.WriteTypes(e.out, pairs)
	}
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := batch.WriteTypes(fp, pairs); err != nil {
		fp.Close()
		return errors.Wrap(err, fname)
	}
	return fp.Close()
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents FILE.yaml",
		Short: "Build a model for each agent type in a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			types, err := agents.ReadFile(args[0])
			if err != nil {
				return err
			}
			built, err := agents.Build(cmd.Context(), types, agents.Options{Workers: e.cfg.Workers})
			if err != nil {
				return err
			}
			for _, t := range types {
				b := built[t.ID]
				line := fmt.Sprintf("agent %d %q %s", b.ID, b.Name, b.Geometry.Kind())
				if s, ok := b.Geometry.(agents.Structure); ok {
					line += fmt.Sprintf(" points %d", len(s.Points))
				}
				if b.Fallback != nil {
					e.log.Warn("agent drawn as sphere", "agent", b.ID, "err", b.Fallback)
					line += fmt.Sprintf(" (wanted %s: %v)", t.Geometry.Kind(), b.Fallback)
				}
				fmt.Fprintln(e.out, line)
			}
			return nil
		},
	}
}
