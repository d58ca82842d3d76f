package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
)

// DynamoCategoryRepository stores categories in a table keyed by id.
type DynamoCategoryRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoCategoryRepository(client DynamoAPI, table string) *DynamoCategoryRepository {
	return &DynamoCategoryRepository{client: client, table: table}
}

type ddbCategory struct {
	CategoryID  string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Slug        string `dynamodbav:"slug"`
	Description string `dynamodbav:"description,omitempty"`
	Image       string `dynamodbav:"image,omitempty"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

func (dc *ddbCategory) toModel() models.Category {
	cat := models.Category{
		Name:        dc.Name,
		Slug:        dc.Slug,
		Description: dc.Description,
		Image:       dc.Image,
	}
	cat.ID, _ = uuid.Parse(dc.CategoryID)
	if t, err := time.Parse(time.RFC3339Nano, dc.CreatedAt); err == nil {
		cat.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, dc.UpdatedAt); err == nil {
		cat.UpdatedAt = t
	}
	return cat
}

func toDDBCategory(cat *models.Category) ddbCategory {
	return ddbCategory{
		CategoryID:  cat.ID.String(),
		Name:        cat.Name,
		Slug:        cat.Slug,
		Description: cat.Description,
		Image:       cat.Image,
		CreatedAt:   cat.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   cat.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func categoryKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id.String()}}
}

func (d *DynamoCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: categoryKey(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dc ddbCategory
	if err := attributevalue.UnmarshalMap(out.Item, &dc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	cat := dc.toModel()
	return &cat, nil
}

func (d *DynamoCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &d.table,
		FilterExpression: aws.String("slug = :slug"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}
	var dc ddbCategory
	if err := attributevalue.UnmarshalMap(out.Items[0], &dc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	cat := dc.toModel()
	return &cat, nil
}

func (d *DynamoCategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	var results []models.Category
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, item := range page.Items {
			var dc ddbCategory
			if err := attributevalue.UnmarshalMap(item, &dc); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, dc.toModel())
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return nameLess(results[i].Name, results[j].Name) })
	return results, nil
}

func (d *DynamoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if _, err := d.FindBySlug(ctx, category.Slug); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now().UTC()
	category.CreatedAt, category.UpdatedAt = now, now
	return d.put(ctx, category, "attribute_not_exists(id)", ErrDuplicate)
}

func (d *DynamoCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if existing, err := d.FindBySlug(ctx, category.Slug); err == nil && existing.ID != category.ID {
		return ErrDuplicate
	}
	current, err := d.FindByID(ctx, category.ID)
	if err != nil {
		return err
	}
	category.CreatedAt = current.CreatedAt
	category.UpdatedAt = time.Now().UTC()
	return d.put(ctx, category, "attribute_exists(id)", ErrNotFound)
}

func (d *DynamoCategoryRepository) put(ctx context.Context, category *models.Category, condition string, conflict error) error {
	item, err := attributevalue.MarshalMap(toDDBCategory(category))
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: &condition,
	})
	if err != nil {
		if isConditionFailed(err) {
			return conflict
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 categoryKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete item failed: %w", err)
	}
	return nil
}

func (d *DynamoCategoryRepository) Count(ctx context.Context) (int64, error) {
	cats, err := d.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(cats)), nil
}

// CreateMany writes categories with BatchWriteItem in chunks of 25.
func (d *DynamoCategoryRepository) CreateMany(ctx context.Context, categories []models.Category) error {
	const chunkSize = 25
	for i := 0; i < len(categories); i += chunkSize {
		end := i + chunkSize
		if end > len(categories) {
			end = len(categories)
		}
		reqs := make([]types.WriteRequest, 0, end-i)
		for j := range categories[i:end] {
			item, err := attributevalue.MarshalMap(toDDBCategory(&categories[i+j]))
			if err != nil {
				return fmt.Errorf("marshal batch item: %w", err)
			}
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := batchWrite(ctx, d.client, d.table, reqs, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
