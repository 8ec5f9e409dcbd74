package commands

import "git.home.luguber.info/inful/sqlite3src/internal/pipeline"

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskBuild})
}

// SQLiteCmd implements the 'sqlite' command.
type SQLiteCmd struct{}

func (s *SQLiteCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskSQLite})
}

// PrepareCmd implements the 'prepare' command.
type PrepareCmd struct{}

func (p *PrepareCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskPrepare})
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskClean})
}

// PublishCmd implements the 'publish' command.
type PublishCmd struct{}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskPublish})
}

// UpdateCmd implements the 'update' command.
type UpdateCmd struct {
	Version string `arg:"" help:"Release to pin, e.g. 3.46.0 or version-3.46.0"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, pipeline.Request{Task: pipeline.TaskUpdate, Version: u.Version})
}
