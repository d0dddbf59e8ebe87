// Package assembly turns the atom_site, pdbx_struct_oper_list and
// pdbx_struct_assembly_gen categories of an mmcif file into models and
// the instances of them a viewer should draw.
//
// A Session collects atoms, transforms and assembly rows during one
// pass over a file. The categories can come in any order. When the file
// is finished, atoms are grouped by chain and entity, the chosen
// assembly is expanded into (chain, operator) pairs and each pair
// becomes an Instance of the chain's Model.
//
// Atoms live in one slice owned by the session. Everything else refers
// to them by index, so nothing breaks if the slice grows.
//
// Operator expressions with more than one group, like (1-60)(61-88),
// are composed: every selection takes one operator from each group and
// multiplies the matrices in the order written, so the last group is
// applied to the coordinates first. A row with groups G1..Gn and chains
// C1..Ck gives k*|G1|*...*|Gn| pairs.
package assembly
