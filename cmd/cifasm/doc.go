// cifasm reads mmcif structure files and reports the models and
// instances a viewer would draw, building biological assemblies from
// pdbx_struct_assembly_gen and pdbx_struct_oper_list.
//
// Usage:
//
//	cifasm load [--assembly ID] [--group chain|entity] FILE
//	cifasm flat FILE
//	cifasm oper EXPR
//	cifasm batch [--workers N] [--flat] FILE...
//	cifasm agents AGENTS.yaml
//
// Settings come from --settings FILE, then CIFASM_ environment
// variables, then flags.
package main
