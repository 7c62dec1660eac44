// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

// Package mirror keeps a replica tree identical to a source tree.
//
// Every cycle the source tree is walked into a Snapshot of folder and file names,
// expressed in the namespace of the source root. The Reconciler copies every
// entry whose replica counterpart is missing, deletes every entry that was in
// the previous baseline but is no longer in the source, and hands back the
// source snapshot as the next baseline. Comparison is by existence only.
package mirror
