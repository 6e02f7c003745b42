// Package shell provides shell integration for automatic version switching.
// It generates shell hook snippets (chpwd for Zsh, PROMPT_COMMAND for Bash,
// --on-variable for Fish) that call nodeswitch hook on directory change,
// and renders the variables the hook exports in each shell's syntax.
package shell
