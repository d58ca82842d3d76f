package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
)

// DynamoAPI is the subset of *dynamodb.Client the adapters call.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// maxTransactItems is the DynamoDB limit on a single TransactWriteItems call.
const maxTransactItems = 100

// DynamoProductRepository stores products in a table keyed by product_id.
// There is no server-side join, so categories are resolved from the
// category table on every listing.
type DynamoProductRepository struct {
	client     DynamoAPI
	table      string
	categories *DynamoCategoryRepository
	retryDelay time.Duration
}

func NewDynamoProductRepository(client DynamoAPI, table string, categories *DynamoCategoryRepository) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table, categories: categories, retryDelay: 300 * time.Millisecond}
}

type ddbProduct struct {
	ProductID     string   `dynamodbav:"product_id"`
	Name          string   `dynamodbav:"name"`
	Description   string   `dynamodbav:"description,omitempty"`
	CategoryID    string   `dynamodbav:"category_id,omitempty"`
	Images        []string `dynamodbav:"images,omitempty"`
	IsTrending    bool     `dynamodbav:"is_trending"`
	TrendingOrder int      `dynamodbav:"trending_order"`
	CreatedAt     string   `dynamodbav:"created_at"`
	UpdatedAt     string   `dynamodbav:"updated_at"`
}

func toDDBProduct(p *models.Product) ddbProduct {
	dp := ddbProduct{
		ProductID:     p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Images:        p.Images,
		IsTrending:    p.IsTrending,
		TrendingOrder: p.TrendingOrder,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.CategoryID != nil {
		dp.CategoryID = p.CategoryID.String()
	}
	return dp
}

func (dp *ddbProduct) toModel() models.Product {
	p := models.Product{
		Name:          dp.Name,
		Description:   dp.Description,
		Images:        models.StringList(dp.Images),
		IsTrending:    dp.IsTrending,
		TrendingOrder: dp.TrendingOrder,
	}
	p.ID, _ = uuid.Parse(dp.ProductID)
	if u, err := uuid.Parse(dp.CategoryID); err == nil {
		p.CategoryID = &u
	}
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func productKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"product_id": &types.AttributeValueMemberS{Value: id.String()},
	}
}

func (d *DynamoProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: productKey(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	if err := d.attachCategories(ctx, []*models.Product{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanAll reads the whole table. The catalog is small enough that filtering
// and ordering happen in memory.
func (d *DynamoProductRepository) scanAll(ctx context.Context) ([]models.Product, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	var products []models.Product
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			products = append(products, dp.toModel())
		}
	}
	ptrs := make([]*models.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
	}
	if err := d.attachCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DynamoProductRepository) attachCategories(ctx context.Context, products []*models.Product) error {
	if d.categories == nil || len(products) == 0 {
		return nil
	}
	cats, err := d.categories.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}
	for _, p := range products {
		if p.CategoryID != nil {
			p.Category = byID[*p.CategoryID]
		}
	}
	return nil
}

func (d *DynamoProductRepository) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(filter.Search)
	matched := all[:0]
	for _, p := range all {
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := offset(filter.Page, filter.PerPage)
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := len(matched)
	if filter.PerPage > 0 && start+filter.PerPage < end {
		end = start + filter.PerPage
	}
	return matched[start:end], total, nil
}

func (d *DynamoProductRepository) ListTrending(ctx context.Context) ([]models.Product, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	var trending []models.Product
	for _, p := range all {
		if p.IsTrending {
			trending = append(trending, p)
		}
	}
	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].TrendingOrder < trending[j].TrendingOrder
	})
	return trending, nil
}

func (d *DynamoProductRepository) ListProductsByName(ctx context.Context) ([]models.Product, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return nameLess(all[i].Name, all[j].Name) })
	return all, nil
}

// nameLess orders names case-insensitively, the way the Postgres "ORDER BY
// name" listings read to an admin. Names equal under folding fall back to
// byte order so the result is deterministic.
func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func (d *DynamoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	item, err := attributevalue.MarshalMap(toDDBProduct(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// CreateMany writes products with BatchWriteItem in chunks of 25, retrying
// unprocessed items.
func (d *DynamoProductRepository) CreateMany(ctx context.Context, products []models.Product) error {
	const chunkSize = 25
	for i := 0; i < len(products); i += chunkSize {
		end := i + chunkSize
		if end > len(products) {
			end = len(products)
		}
		writeReqs := make([]types.WriteRequest, 0, end-i)
		for j := range products[i:end] {
			item, err := attributevalue.MarshalMap(toDDBProduct(&products[i+j]))
			if err != nil {
				return fmt.Errorf("marshal batch item: %w", err)
			}
			writeReqs = append(writeReqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := batchWrite(ctx, d.client, d.table, writeReqs, d.retryDelay); err != nil {
			return err
		}
	}
	return nil
}

func (d *DynamoProductRepository) Update(ctx context.Context, product *models.Product) error {
	images, err := attributevalue.Marshal([]string(product.Images))
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	category := ""
	if product.CategoryID != nil {
		category = product.CategoryID.String()
	}
	return d.update(ctx, product.ID,
		"SET #n = :name, description = :desc, category_id = :cat, images = :img, updated_at = :now",
		map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: product.Name},
			":desc": &types.AttributeValueMemberS{Value: product.Description},
			":cat":  &types.AttributeValueMemberS{Value: category},
			":img":  images,
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{"#n": "name"})
}

func (d *DynamoProductRepository) update(ctx context.Context, id uuid.UUID, expr string, values map[string]types.AttributeValue, names map[string]string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       productKey(id),
		UpdateExpression:          &expr,
		ConditionExpression:       aws.String("attribute_exists(product_id)"),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 productKey(id),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete item failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) Count(ctx context.Context) (int64, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table, Select: types.SelectCount})
	var total int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("scan count failed: %w", err)
		}
		total += int64(page.Count)
	}
	return total, nil
}

func (d *DynamoProductRepository) CountTrending(ctx context.Context) (int64, error) {
	trending, err := d.ListTrending(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(trending)), nil
}

func (d *DynamoProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	_, total, err := d.Find(ctx, models.ProductFilter{CategoryID: &categoryID, Page: 1})
	return total, err
}

// ClearTrending unflags every trending product one item at a time.
func (d *DynamoProductRepository) ClearTrending(ctx context.Context) error {
	trending, err := d.ListTrending(ctx)
	if err != nil {
		return err
	}
	for _, p := range trending {
		if err := d.update(ctx, p.ID, "SET is_trending = :f, trending_order = :z",
			map[string]types.AttributeValue{
				":f": &types.AttributeValueMemberBOOL{Value: false},
				":z": &types.AttributeValueMemberN{Value: "0"},
			}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *DynamoProductRepository) SetTrending(ctx context.Context, id uuid.UUID, order int) error {
	return d.update(ctx, id, "SET is_trending = :t, trending_order = :o",
		map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":o": &types.AttributeValueMemberN{Value: fmt.Sprint(order)},
		}, nil)
}

// ReplaceTrending applies the clear and the ordered sets in one
// TransactWriteItems call. Products that stay trending are written once with
// their new order.
func (d *DynamoProductRepository) ReplaceTrending(ctx context.Context, ids []uuid.UUID) error {
	current, err := d.ListTrending(ctx)
	if err != nil {
		return err
	}
	keep := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	var items []types.TransactWriteItem
	for _, p := range current {
		if keep[p.ID] {
			continue
		}
		items = append(items, types.TransactWriteItem{Update: &types.Update{
			TableName:        &d.table,
			Key:              productKey(p.ID),
			UpdateExpression: aws.String("SET is_trending = :f, trending_order = :z"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":f": &types.AttributeValueMemberBOOL{Value: false},
				":z": &types.AttributeValueMemberN{Value: "0"},
			},
		}})
	}
	for i, id := range ids {
		items = append(items, types.TransactWriteItem{Update: &types.Update{
			TableName:           &d.table,
			Key:                 productKey(id),
			UpdateExpression:    aws.String("SET is_trending = :t, trending_order = :o"),
			ConditionExpression: aws.String("attribute_exists(product_id)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberBOOL{Value: true},
				":o": &types.AttributeValueMemberN{Value: fmt.Sprint(i)},
			},
		}})
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTransactItems {
		return fmt.Errorf("trending replace needs %d writes, limit is %d", len(items), maxTransactItems)
	}
	if _, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return fmt.Errorf("transact write failed: %w", err)
	}
	return nil
}

func batchWrite(ctx context.Context, client DynamoAPI, table string, reqs []types.WriteRequest, delay time.Duration) error {
	req := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{table: reqs}}
	attempts := 0
	for {
		out, err := client.BatchWriteItem(ctx, req)
		if err != nil {
			return fmt.Errorf("batch write failed: %w", err)
		}
		unp := out.UnprocessedItems[table]
		if len(unp) == 0 {
			return nil
		}
		req.RequestItems[table] = unp
		attempts++
		if attempts >= 3 {
			return fmt.Errorf("batch write had %d unprocessed items after retries", len(unp))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts) * delay):
		}
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
