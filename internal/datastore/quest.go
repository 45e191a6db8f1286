package datastore

import (
	"context"

	"questboard/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableProject(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Project)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Project)(nil)).Index("index_project_owner_id").IfNotExists().Column("owner_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableQuest(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Quest)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Quest)(nil)).Index("index_quest_project_id").IfNotExists().Column("project_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableTask(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Task)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_task_quest_id_order_index").IfNotExists().Column("quest_id", "order_index").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertProject(ctx context.Context, db *bun.DB, project *models.Project) error {
	_, err := db.NewInsert().Model(project).Returning("*").Exec(ctx)
	return err
}

func GetProjectByID(ctx context.Context, db *bun.DB, id string) (*models.Project, error) {
	var project models.Project
	err := db.NewSelect().Model(&project).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func InsertQuest(ctx context.Context, db *bun.DB, quest *models.Quest) error {
	_, err := db.NewInsert().Model(quest).Returning("*").Exec(ctx)
	return err
}

func GetQuestByID(ctx context.Context, db *bun.DB, id string) (*models.Quest, error) {
	var quest models.Quest
	err := db.NewSelect().Model(&quest).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

func GetQuestsByProject(ctx context.Context, db *bun.DB, projectID string) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := db.NewSelect().Model(&quests).Where("project_id = ?", projectID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return quests, nil
}

func InsertTask(ctx context.Context, db *bun.DB, task *models.Task) error {
	_, err := db.NewInsert().Model(task).Returning("*").Exec(ctx)
	return err
}

func GetTaskByID(ctx context.Context, db *bun.DB, id string) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTasksByQuest(ctx context.Context, db *bun.DB, questID string) ([]*models.Task, error) {
	var tasks []*models.Task
	err := db.NewSelect().Model(&tasks).Where("quest_id = ?", questID).Order("order_index ASC", "created_at ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
